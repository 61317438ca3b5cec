// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lpc carries host commands to the EC over its LPC I/O ports
// using protocol v3 packets.
package lpc

import (
	"fmt"
	"time"

	"github.com/u-root/u-root/pkg/memio"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// I/O ports of the EC host command interface.
const (
	DataPort   = 0x200
	StatusPort = 0x204
	// CommandPort is the same port as StatusPort, written instead of read.
	CommandPort = 0x204
	PacketPort  = 0x800

	// Protocol3 is written to CommandPort to run the packet at PacketPort.
	Protocol3 = 0xda
)

// Status bits.
const (
	StatusFromHost   = 0x02
	StatusProcessing = 0x04
	StatusBusyMask   = StatusFromHost | StatusProcessing
)

// DefaultTimeout bounds each wait for the EC.
const DefaultTimeout = time.Second

const pollDelay = 10 * time.Microsecond

// Debug logs port traffic when set.
var Debug = func(format string, v ...interface{}) {}

// Transport is an ec.Transport over LPC I/O ports.
type Transport struct {
	In  func(uint16, memio.UintN) error
	Out func(uint16, memio.UintN) error

	Clock   ec.Clock
	Timeout time.Duration
	// PacketSize is the size of the packet window at PacketPort.
	PacketSize int
}

func (t *Transport) inb(port uint16) (uint8, error) {
	var v memio.Uint8
	if err := t.In(port, &v); err != nil {
		return 0, fmt.Errorf("inb %#x: %w", port, err)
	}
	return uint8(v), nil
}

func (t *Transport) outb(port uint16, b uint8) error {
	v := memio.Uint8(b)
	if err := t.Out(port, &v); err != nil {
		return fmt.Errorf("outb %#x: %w", port, err)
	}
	return nil
}

func (t *Transport) timeout() time.Duration {
	if t.Timeout == 0 {
		return DefaultTimeout
	}
	return t.Timeout
}

func (t *Transport) clock() ec.Clock {
	if t.Clock == nil {
		return ec.SystemClock{}
	}
	return t.Clock
}

func (t *Transport) packetSize() int {
	if t.PacketSize == 0 {
		return ec.HostPacketSize
	}
	return t.PacketSize
}

// waitReady polls the status port until the EC is idle.
func (t *Transport) waitReady() error {
	c := t.clock()
	start := c.Now()
	for {
		st, err := t.inb(StatusPort)
		if err != nil {
			return err
		}
		if st&StatusBusyMask == 0 {
			return nil
		}
		if c.Now().Sub(start) >= t.timeout() {
			return fmt.Errorf("status %#02x after %v: %w", st, t.timeout(), ec.ErrTimeout)
		}
		c.Sleep(pollDelay)
	}
}

func (t *Transport) write(port uint16, b []byte) error {
	for i, v := range b {
		if err := t.outb(port+uint16(i), v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transport) read(port uint16, b []byte) error {
	for i := range b {
		v, err := t.inb(port + uint16(i))
		if err != nil {
			return err
		}
		b[i] = v
	}
	return nil
}

// Send implements ec.Transport.
func (t *Transport) Send(req *ec.Request, resp []byte) (int, ec.Result, error) {
	pkt, err := ec.EncodeRequestPacket(req)
	if err != nil {
		return 0, 0, err
	}
	if len(pkt) > t.packetSize() {
		return 0, 0, fmt.Errorf("%d byte request packet exceeds %d: %w", len(pkt), t.packetSize(), ec.ErrBadPacket)
	}
	Debug("lpc: send % x", pkt)

	if err := t.waitReady(); err != nil {
		return 0, 0, err
	}
	if err := t.write(PacketPort, pkt); err != nil {
		return 0, 0, err
	}
	if err := t.outb(CommandPort, Protocol3); err != nil {
		return 0, 0, err
	}
	if err := t.waitReady(); err != nil {
		return 0, 0, err
	}

	res, err := t.inb(DataPort)
	if err != nil {
		return 0, 0, err
	}
	if res != 0 {
		return 0, ec.Result(res), nil
	}

	hdr := make([]byte, ec.ResponseHeaderSize)
	if err := t.read(PacketPort, hdr); err != nil {
		return 0, 0, err
	}
	var h ec.ResponseHeader
	if err := ec.Unmarshal(hdr, &h); err != nil {
		return 0, 0, err
	}
	if ec.ResponseHeaderSize+int(h.DataLen) > t.packetSize() {
		return 0, 0, fmt.Errorf("response claims %d data bytes: %w", h.DataLen, ec.ErrBadPacket)
	}
	full := append(hdr, make([]byte, h.DataLen)...)
	if err := t.read(PacketPort+ec.ResponseHeaderSize, full[ec.ResponseHeaderSize:]); err != nil {
		return 0, 0, err
	}
	Debug("lpc: recv % x", full)
	r, data, err := ec.DecodeResponsePacket(full)
	if err != nil {
		return 0, 0, err
	}
	copy(resp, data)
	return len(data), r, nil
}

var _ ec.Transport = (*Transport)(nil)
