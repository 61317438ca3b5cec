// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crosdev carries host commands through the cros_ec kernel
// driver's character device.
package crosdev

import (
	"encoding/binary"
	"fmt"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// DefaultPath is the character device of the main EC.
const DefaultPath = "/dev/cros_ec"

// IocXCmdV2 is CROS_EC_DEV_IOCXCMD_V2, _IOWR(0xec, 0, struct cros_ec_command_v2).
const IocXCmdV2 = 0xc014ec00

// cmdHeaderSize is the fixed part of struct cros_ec_command_v2: version,
// command, outsize, insize and result, all 32 bit.
const cmdHeaderSize = 20

// MaxData bounds the payload in either direction.
const MaxData = ec.HostPacketSize - ec.RequestHeaderSize

// Ioctl issues one CROS_EC_DEV_IOCXCMD_V2 on buf and returns the number
// of response bytes the driver reports.
type Ioctl func(buf []byte) (int, error)

// Transport is an ec.Transport over the cros_ec character device.
type Transport struct {
	ioctl Ioctl
	close func() error
}

// NewTransport returns a Transport issuing commands through ioctl.
func NewTransport(ioctl Ioctl) *Transport {
	return &Transport{ioctl: ioctl, close: func() error { return nil }}
}

// Close releases the device.
func (t *Transport) Close() error {
	return t.close()
}

// encodeCommand lays out a cros_ec_command_v2 for req with room for
// insize response bytes.
func encodeCommand(req *ec.Request, insize int) []byte {
	n := len(req.Data)
	if insize > n {
		n = insize
	}
	buf := make([]byte, cmdHeaderSize+n)
	e := binary.NativeEndian
	e.PutUint32(buf[0:], uint32(req.Version))
	e.PutUint32(buf[4:], uint32(req.Code()))
	e.PutUint32(buf[8:], uint32(len(req.Data)))
	e.PutUint32(buf[12:], uint32(insize))
	copy(buf[cmdHeaderSize:], req.Data)
	return buf
}

// decodeCommand returns the EC result and response bytes of a command
// the driver completed with n data bytes.
func decodeCommand(buf []byte, n int) (ec.Result, []byte, error) {
	if len(buf) < cmdHeaderSize {
		return 0, nil, fmt.Errorf("%d byte command: %w", len(buf), ec.ErrShortResponse)
	}
	res := ec.Result(binary.NativeEndian.Uint32(buf[16:]))
	if n < 0 || cmdHeaderSize+n > len(buf) {
		return 0, nil, fmt.Errorf("driver reports %d bytes: %w", n, ec.ErrBadPacket)
	}
	return res, buf[cmdHeaderSize : cmdHeaderSize+n], nil
}

// Send implements ec.Transport.
func (t *Transport) Send(req *ec.Request, resp []byte) (int, ec.Result, error) {
	if len(req.Data) > MaxData {
		return 0, 0, fmt.Errorf("%d byte request exceeds %d: %w", len(req.Data), MaxData, ec.ErrBadPacket)
	}
	insize := len(resp)
	if insize > MaxData {
		insize = MaxData
	}
	buf := encodeCommand(req, insize)
	n, err := t.ioctl(buf)
	if err != nil {
		return 0, 0, fmt.Errorf("cros_ec ioctl %v: %w", req.Command, err)
	}
	res, data, err := decodeCommand(buf, n)
	if err != nil {
		return 0, 0, err
	}
	if res != ec.ResSuccess {
		return 0, res, nil
	}
	return copy(resp, data), res, nil
}

var _ ec.Transport = (*Transport)(nil)
