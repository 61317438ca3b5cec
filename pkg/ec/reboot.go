// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
	"time"

	"github.com/linuxboot/chromeec/pkg/elog"
	"github.com/linuxboot/chromeec/pkg/log"
)

// Re-hello parameters after a reboot.
const (
	RebootHelloInterval = 50 * time.Millisecond
	RebootHelloTimeout  = time.Second
)

// Reboot sends REBOOT_EC to device dev. Any response data is ignored.
func (c *Channel) Reboot(dev uint8, cmd RebootCmd, flags uint8) error {
	log.Infof("EC: reboot %v (flags %#x)", cmd, flags)
	c.logEvent(elog.TypeECReboot, uint32(cmd), cmd.String())
	_, err := c.Send(&Request{
		Command: CmdRebootEC,
		Device:  dev,
		Data:    Marshal(&RebootParams{Cmd: cmd, Flags: flags}),
	}, make([]byte, LegacyParamSize))
	return err
}

// RebootAndWait reboots the EC and waits until it says hello again. The
// image identity cached by CurrentImage is kept for the boot.
func (c *Channel) RebootAndWait(cmd RebootCmd, flags uint8) error {
	if err := c.Reboot(0, cmd, flags); err != nil {
		return err
	}
	start := c.clock.Now()
	for {
		c.clock.Sleep(RebootHelloInterval)
		err := c.Hello()
		if err == nil {
			return nil
		}
		if c.clock.Now().Sub(start) >= RebootHelloTimeout {
			return fmt.Errorf("EC did not come back after %v reboot: %v: %w", cmd, err, ErrTimeout)
		}
	}
}

// JumpToRW switches a running RO image to RW, waits for it and logs the
// new versions.
func (c *Channel) JumpToRW() error {
	if err := c.RebootAndWait(RebootJumpRW, 0); err != nil {
		return err
	}
	_, err := c.Version()
	return err
}
