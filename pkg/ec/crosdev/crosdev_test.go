// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crosdev

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ec/ecsim"
)

// driver completes commands the way the kernel does, against a simulator.
func driver(sim *ecsim.EC) Ioctl {
	return func(buf []byte) (int, error) {
		e := binary.NativeEndian
		req := &ec.Request{
			Command: ec.Cmd(e.Uint32(buf[4:]) % 0x4000),
			Device:  uint8(e.Uint32(buf[4:]) / 0x4000),
			Version: uint8(e.Uint32(buf[0:])),
			Data:    append([]byte(nil), buf[cmdHeaderSize:cmdHeaderSize+int(e.Uint32(buf[8:]))]...),
		}
		insize := int(e.Uint32(buf[12:]))
		n, res, err := sim.Send(req, buf[cmdHeaderSize:cmdHeaderSize+insize])
		if err != nil {
			return 0, unix.EIO
		}
		e.PutUint32(buf[16:], uint32(res))
		return n, nil
	}
}

func TestEncodeCommand(t *testing.T) {
	req := &ec.Request{Command: ec.CmdFlashRead, Version: 1, Device: 1, Data: []byte{1, 2, 3}}
	buf := encodeCommand(req, 8)
	require.Len(t, buf, cmdHeaderSize+8)

	e := binary.NativeEndian
	assert.Equal(t, uint32(1), e.Uint32(buf[0:]))
	assert.Equal(t, uint32(0x4000+ec.CmdFlashRead), e.Uint32(buf[4:]))
	assert.Equal(t, uint32(3), e.Uint32(buf[8:]))
	assert.Equal(t, uint32(8), e.Uint32(buf[12:]))
	assert.Equal(t, []byte{1, 2, 3}, buf[cmdHeaderSize:cmdHeaderSize+3])
}

func TestIoctlNumber(t *testing.T) {
	// _IOWR: read|write direction, size, type, number.
	const iowr = 3 << 30
	assert.Equal(t, uint32(iowr|cmdHeaderSize<<16|0xec<<8|0), uint32(IocXCmdV2))
}

func TestSendThroughDriver(t *testing.T) {
	sim := ecsim.New()
	sim.VersionRW = "sim_v2.0.0-rw"
	ch := ec.NewChannel(NewTransport(driver(sim)))

	require.NoError(t, ch.Hello())
	v, err := ch.Version()
	require.NoError(t, err)
	assert.Equal(t, "sim_v2.0.0-rw", v.RW)
}

func TestSendResult(t *testing.T) {
	sim := ecsim.New()
	sim.Fail(ec.CmdHello, ec.ResBusy, 1)
	tr := NewTransport(driver(sim))

	n, res, err := tr.Send(&ec.Request{Command: ec.CmdHello, Data: make([]byte, 4)}, make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, ec.ResBusy, res)
	assert.Zero(t, n)
}

func TestSendErrors(t *testing.T) {
	tr := NewTransport(func([]byte) (int, error) { return 0, unix.EIO })
	_, _, err := tr.Send(&ec.Request{Command: ec.CmdHello}, nil)
	assert.True(t, errors.Is(err, unix.EIO))

	_, _, err = tr.Send(&ec.Request{Command: ec.CmdFlashWrite, Data: make([]byte, MaxData+1)}, nil)
	assert.ErrorIs(t, err, ec.ErrBadPacket)

	tr = NewTransport(func([]byte) (int, error) { return 1 << 20, nil })
	_, _, err = tr.Send(&ec.Request{Command: ec.CmdHello}, make([]byte, 4))
	assert.ErrorIs(t, err, ec.ErrBadPacket)
}
