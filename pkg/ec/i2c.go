// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
)

// I2CRead reads len(buf) bytes from register reg of the I2C device at
// chip on the EC's first I2C port.
func (c *Channel) I2CRead(chip, reg uint8, buf []byte) error {
	return c.i2cXfer(chip, reg, buf, true)
}

// I2CWrite writes data to register reg of the I2C device at chip on the
// EC's first I2C port.
func (c *Channel) I2CWrite(chip, reg uint8, data []byte) error {
	return c.i2cXfer(chip, reg, data, false)
}

// i2cXfer runs a register write, or a register write and a read, as one
// I2C_PASSTHRU. Both have to fit the legacy parameter buffer.
func (c *Channel) i2cXfer(chip, reg uint8, buf []byte, read bool) error {
	msgs := []I2CPassthruMsg{{AddrFlags: uint16(chip), Len: 1}}
	readLen := 0
	if read {
		readLen = len(buf)
		msgs = append(msgs, I2CPassthruMsg{AddrFlags: uint16(chip) | I2CFlagRead, Len: uint16(readLen)})
	} else {
		msgs[0].Len += uint16(len(buf))
	}

	in := Marshal(&I2CPassthruParams{NumMsgs: uint8(len(msgs))})
	for i := range msgs {
		in = append(in, Marshal(&msgs[i])...)
	}
	in = append(in, reg)
	if !read {
		in = append(in, buf...)
	}
	if len(in) > LegacyParamSize {
		return fmt.Errorf("I2C write of %d bytes to %#02x: %w", len(buf), chip, ErrBufferTooSmall)
	}
	hdr := Size(&I2CPassthruResponse{})
	if hdr+readLen > LegacyParamSize {
		return fmt.Errorf("I2C read of %d bytes from %#02x: %w", readLen, chip, ErrBufferTooSmall)
	}

	out := make([]byte, hdr+readLen)
	n, err := c.Command(CmdI2CPassthru, 0, in, out)
	if err != nil {
		return err
	}
	var r I2CPassthruResponse
	if err := Unmarshal(out[:n], &r); err != nil {
		return err
	}
	if r.Status&I2CStatusError != 0 {
		return fmt.Errorf("I2C transfer with %#02x: status %#x: %w", chip, r.Status, ErrI2C)
	}
	if n < hdr+readLen {
		return fmt.Errorf("I2C read from %#02x: got %d bytes, want %d: %w", chip, n-hdr, readLen, ErrShortResponse)
	}
	copy(buf, out[hdr:hdr+readLen])
	return nil
}
