// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"bytes"
	"errors"
	"testing"
)

var (
	helloRequestPacket = []byte{
		0x03, 0x58, 0x01, 0x00, 0x00, 0x00, 0x04, 0x00,
		0x40, 0x30, 0x20, 0x10,
	}
	helloResponsePacket = []byte{
		0x03, 0x4f, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00,
		0x44, 0x33, 0x22, 0x11,
	}
)

func TestEncodeRequestPacket(t *testing.T) {
	pkt, err := EncodeRequestPacket(&Request{Command: CmdHello, Data: Marshal(&HelloParams{InData: 0x10203040})})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pkt, helloRequestPacket) {
		t.Errorf("got % x, want % x", pkt, helloRequestPacket)
	}
	if Checksum(pkt) != 0 {
		t.Errorf("packet sums to %#02x", Checksum(pkt))
	}
}

func TestEncodeRequestPacketDevice(t *testing.T) {
	pkt, err := EncodeRequestPacket(&Request{Command: CmdRebootEC, Version: 2, Device: 1})
	if err != nil {
		t.Fatal(err)
	}
	req, res := DecodeRequestPacket(pkt)
	if res != ResSuccess {
		t.Fatalf("decode: %v", res)
	}
	if req.Command != CmdRebootEC+0x4000 || req.Version != 2 {
		t.Errorf("got %v v%d", req.Command, req.Version)
	}
}

func TestDecodeRequestPacket(t *testing.T) {
	req, res := DecodeRequestPacket(helloRequestPacket)
	if res != ResSuccess {
		t.Fatalf("decode: %v", res)
	}
	if req.Command != CmdHello || !bytes.Equal(req.Data, helloRequestPacket[8:]) {
		t.Errorf("got %+v", req)
	}

	for _, tt := range []struct {
		n    string
		pkt  func() []byte
		want Result
	}{
		{n: "short header", pkt: func() []byte { return helloRequestPacket[:5] }, want: ResRequestTruncated},
		{n: "short data", pkt: func() []byte { return helloRequestPacket[:10] }, want: ResRequestTruncated},
		{n: "version", pkt: func() []byte {
			b := append([]byte(nil), helloRequestPacket...)
			b[0] = 2
			return b
		}, want: ResInvalidHeader},
		{n: "checksum", pkt: func() []byte {
			b := append([]byte(nil), helloRequestPacket...)
			b[9]++
			return b
		}, want: ResInvalidChecksum},
	} {
		t.Run(tt.n, func(t *testing.T) {
			if _, res := DecodeRequestPacket(tt.pkt()); res != tt.want {
				t.Errorf("got %v, want %v", res, tt.want)
			}
		})
	}
}

func TestResponsePacket(t *testing.T) {
	pkt := EncodeResponsePacket(ResSuccess, Marshal(&HelloResponse{OutData: 0x11223344}))
	if !bytes.Equal(pkt, helloResponsePacket) {
		t.Errorf("got % x, want % x", pkt, helloResponsePacket)
	}
	res, data, err := DecodeResponsePacket(append(pkt, 0xee, 0xee))
	if err != nil {
		t.Fatal(err)
	}
	if res != ResSuccess || !bytes.Equal(data, pkt[8:]) {
		t.Errorf("got %v % x", res, data)
	}

	res, data, err = DecodeResponsePacket(EncodeResponsePacket(ResInvalidParam, nil))
	if err != nil || res != ResInvalidParam || len(data) != 0 {
		t.Errorf("got %v % x %v", res, data, err)
	}

	bad := append([]byte(nil), pkt...)
	bad[10] ^= 0x01
	if _, _, err := DecodeResponsePacket(bad); !errors.Is(err, ErrBadPacket) {
		t.Errorf("corrupt packet: got %v, want ErrBadPacket", err)
	}
	if _, _, err := DecodeResponsePacket(pkt[:9]); !errors.Is(err, ErrBadPacket) {
		t.Errorf("truncated packet: got %v, want ErrBadPacket", err)
	}
}
