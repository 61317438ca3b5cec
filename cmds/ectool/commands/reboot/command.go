// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reboot

import (
	"fmt"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var _ commands.Command = (*Command)(nil)

var kinds = map[string]ec.RebootCmd{
	"cancel":       ec.RebootCancel,
	"ro":           ec.RebootJumpRO,
	"rw":           ec.RebootJumpRW,
	"cold":         ec.RebootCold,
	"disable-jump": ec.RebootDisableJump,
	"hibernate":    ec.RebootHibernate,
	"cold-ap-off":  ec.RebootColdAPOff,
}

// Command reboots the EC.
type Command struct {
	Wait       bool   `long:"wait" description:"wait until the EC answers again"`
	AtShutdown bool   `long:"at-shutdown" description:"reboot once the AP shuts down"`
	SwitchSlot bool   `long:"switch-slot" description:"boot the other RW slot next"`
	Device     uint8  `long:"dev" default:"0" description:"passthru device index, 1 for the PD MCU"`
	Kind       string `long:"kind" default:"cold" description:"cancel, ro, rw, cold, disable-jump, hibernate or cold-ap-off"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "reboots the EC"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Command) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	kind, ok := kinds[cmd.Kind]
	if !ok {
		return commands.ErrArgs{Err: fmt.Errorf("unknown reboot kind %q", cmd.Kind)}
	}
	var flags uint8
	if cmd.AtShutdown {
		flags |= ec.RebootFlagOnAPShutdown
	}
	if cmd.SwitchSlot {
		flags |= ec.RebootFlagSwitchRWSlot
	}
	if cmd.Wait && cmd.Device != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("--wait only works for the EC itself")}
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if cmd.Wait {
		if err := ch.RebootAndWait(kind, flags); err != nil {
			return err
		}
		fmt.Fprintln(commands.Stdout, "EC is back")
		return nil
	}
	return ch.Reboot(cmd.Device, kind, flags)
}
