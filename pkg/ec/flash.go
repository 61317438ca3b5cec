// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"errors"
	"fmt"

	"github.com/linuxboot/chromeec/pkg/bytes"
	"github.com/linuxboot/chromeec/pkg/log"
)

// HostPacketSize is the protocol v3 packet limit assumed when the EC
// cannot report its own.
const HostPacketSize = 0x100

// flashWriteHeaderSize is the FLASH_WRITE offset and size preceding the data.
const flashWriteHeaderSize = 8

// FlashInfo returns the EC flash geometry. Version 1 of the command is
// tried first; ECs that only know version 0 report zero ideal size and
// flags.
func (c *Channel) FlashInfo() (*FlashInfo, error) {
	var fi FlashInfo
	err := c.call(CmdFlashInfo, 1, nil, &fi)
	if err == nil {
		return &fi, nil
	}
	var re *ResultError
	if !errors.As(err, &re) || re.Result != ResInvalidVersion {
		return nil, err
	}
	if err := c.call(CmdFlashInfo, 0, nil, &fi.FlashInfoV0); err != nil {
		return nil, err
	}
	return &fi, nil
}

// FlashRegionInfo returns where region lives in EC flash.
func (c *Channel) FlashRegionInfo(region FlashRegionID) (*FlashRegion, error) {
	var r FlashRegion
	if err := c.call(CmdFlashRegionInfo, 1, &FlashRegionInfoParams{Region: region}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FlashErase erases size bytes at offset.
func (c *Channel) FlashErase(offset, size uint32) error {
	log.Debugf("EC: erasing %#x bytes at %#x", size, offset)
	return c.call(CmdFlashErase, 0, &FlashRange{Offset: offset, Size: size}, nil)
}

// FlashProtect changes the protect flags in mask to flags and returns the
// resulting state. A zero mask only queries.
func (c *Channel) FlashProtect(mask, flags uint32) (*FlashProtect, error) {
	var r FlashProtect
	if err := c.call(CmdFlashProtect, 1, &FlashProtectParams{Mask: mask, Flags: flags}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// maxPacket returns the EC's request and response packet limits. Limits
// that leave no room for data past the packet header are not believed.
func (c *Channel) maxPacket() (req, resp int) {
	pi, err := c.ProtocolInfo()
	if err != nil {
		log.Debugf("EC: no protocol info (%v), assuming %d byte packets", err, HostPacketSize)
		return HostPacketSize, HostPacketSize
	}
	req, resp = int(pi.MaxRequestPacketSize), int(pi.MaxResponsePacketSize)
	if req <= RequestHeaderSize || resp <= ResponseHeaderSize {
		log.Warnf("EC reports %d/%d byte request/response packets, assuming %d", req, resp, HostPacketSize)
		return HostPacketSize, HostPacketSize
	}
	return req, resp
}

// FlashRead reads size bytes at offset, in as many commands as the
// response packet limit requires.
func (c *Channel) FlashRead(offset, size uint32) ([]byte, error) {
	_, maxResp := c.maxPacket()
	chunk := uint32(maxResp - ResponseHeaderSize)
	out := make([]byte, size)
	for done := uint32(0); done < size; done += chunk {
		n := size - done
		if n > chunk {
			n = chunk
		}
		if err := c.CommandExact(CmdFlashRead, 0, Marshal(&FlashRange{Offset: offset + done, Size: n}), out[done:done+n], int(n)); err != nil {
			return nil, fmt.Errorf("reading EC flash at %#x: %w", offset+done, err)
		}
	}
	return out, nil
}

// writeBurst returns the data size and command version of each FLASH_WRITE.
func (c *Channel) writeBurst() (int, uint8, error) {
	if !c.CmdVersionSupported(CmdFlashWrite, 1) {
		return FlashWriteV0Size, 0, nil
	}
	fi, err := c.FlashInfo()
	if err != nil {
		return 0, 0, fmt.Errorf("flash info: %w", err)
	}
	if fi.WriteBlockSize == 0 {
		return 0, 0, fmt.Errorf("EC reports a zero flash write block size: %w", ErrBadPacket)
	}
	maxReq, _ := c.maxPacket()
	room := maxReq - RequestHeaderSize - flashWriteHeaderSize
	wbs := int(fi.WriteBlockSize)
	burst := room / wbs * wbs
	if burst <= 0 {
		return 0, 0, fmt.Errorf("write block of %d bytes does not fit a %d byte packet: %w", wbs, maxReq, ErrBufferTooSmall)
	}
	return burst, 1, nil
}

// WriteBurstSize returns how many bytes each FLASH_WRITE carries.
func (c *Channel) WriteBurstSize() (int, error) {
	n, _, err := c.writeBurst()
	return n, err
}

// FlashWrite writes data at offset in uniform bursts. The final burst is
// padded with erased bytes. Writing stops at the first failure.
func (c *Channel) FlashWrite(data []byte, offset uint32) error {
	burst, version, err := c.writeBurst()
	if err != nil {
		return err
	}
	if len(c.burst) != flashWriteHeaderSize+burst {
		c.burst = make([]byte, flashWriteHeaderSize+burst)
	}
	buf := c.burst
	log.Debugf("EC: writing %#x bytes at %#x in %d byte bursts", len(data), offset, burst)
	for done := 0; done < len(data); done += burst {
		off := offset + uint32(done)
		copy(buf, Marshal(&FlashRange{Offset: off, Size: uint32(burst)}))
		n := copy(buf[flashWriteHeaderSize:], data[done:])
		bytes.Fill(buf[flashWriteHeaderSize+n:], bytes.Erased)
		if _, err := c.Command(CmdFlashWrite, version, buf, nil); err != nil {
			return fmt.Errorf("writing EC flash at %#x: %w", off, err)
		}
	}
	return nil
}

// UpdateRWRegion erases the whole RW region and writes image to its start.
func (c *Channel) UpdateRWRegion(image []byte) error {
	r, err := c.FlashRegionInfo(FlashRegionRW)
	if err != nil {
		return fmt.Errorf("RW region info: %w", err)
	}
	if uint64(len(image)) > uint64(r.Size) {
		return fmt.Errorf("image of %d bytes does not fit the %d byte RW region", len(image), r.Size)
	}
	if err := c.FlashErase(r.Offset, r.Size); err != nil {
		return fmt.Errorf("erasing RW region: %w", err)
	}
	return c.FlashWrite(image, r.Offset)
}
