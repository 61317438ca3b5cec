// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import "fmt"

// Protocol v3 packet headers. The checksum byte is chosen so that the
// whole packet, header and data, sums to zero.
const (
	RequestHeaderSize  = 8
	ResponseHeaderSize = 8
)

// RequestHeader is the protocol v3 request header.
type RequestHeader struct {
	StructVersion  uint8
	Checksum       uint8
	Command        uint16
	CommandVersion uint8
	Reserved       uint8
	DataLen        uint16
}

// ResponseHeader is the protocol v3 response header.
type ResponseHeader struct {
	StructVersion uint8
	Checksum      uint8
	Result        Result
	DataLen       uint16
	Reserved      uint16
}

func seal(pkt []byte) {
	pkt[1] = 0
	pkt[1] = -Checksum(pkt)
}

// EncodeRequestPacket frames req as a protocol v3 request.
func EncodeRequestPacket(req *Request) ([]byte, error) {
	if len(req.Data) > 0xffff {
		return nil, fmt.Errorf("%v: %d byte request: %w", req.Command, len(req.Data), ErrBadPacket)
	}
	h := RequestHeader{
		StructVersion:  ProtoVersion3,
		Command:        req.Code(),
		CommandVersion: req.Version,
		DataLen:        uint16(len(req.Data)),
	}
	pkt := append(Marshal(&h), req.Data...)
	seal(pkt)
	return pkt, nil
}

// DecodeRequestPacket parses a protocol v3 request. Device is always 0;
// the passthru offset stays in Command.
func DecodeRequestPacket(pkt []byte) (*Request, Result) {
	var h RequestHeader
	if err := Unmarshal(pkt, &h); err != nil {
		return nil, ResRequestTruncated
	}
	if h.StructVersion != ProtoVersion3 {
		return nil, ResInvalidHeader
	}
	if len(pkt) < RequestHeaderSize+int(h.DataLen) {
		return nil, ResRequestTruncated
	}
	pkt = pkt[:RequestHeaderSize+int(h.DataLen)]
	if Checksum(pkt) != 0 {
		return nil, ResInvalidChecksum
	}
	return &Request{
		Command: Cmd(h.Command),
		Version: h.CommandVersion,
		Data:    append([]byte(nil), pkt[RequestHeaderSize:]...),
	}, ResSuccess
}

// EncodeResponsePacket frames a protocol v3 response.
func EncodeResponsePacket(res Result, data []byte) []byte {
	h := ResponseHeader{
		StructVersion: ProtoVersion3,
		Result:        res,
		DataLen:       uint16(len(data)),
	}
	pkt := append(Marshal(&h), data...)
	seal(pkt)
	return pkt
}

// DecodeResponsePacket validates a protocol v3 response and returns its
// result and payload.
func DecodeResponsePacket(pkt []byte) (Result, []byte, error) {
	var h ResponseHeader
	if err := Unmarshal(pkt, &h); err != nil {
		return 0, nil, fmt.Errorf("response header: %w", ErrBadPacket)
	}
	if h.StructVersion != ProtoVersion3 {
		return 0, nil, fmt.Errorf("response struct version %d: %w", h.StructVersion, ErrBadPacket)
	}
	end := ResponseHeaderSize + int(h.DataLen)
	if len(pkt) < end {
		return 0, nil, fmt.Errorf("response claims %d data bytes, have %d: %w", h.DataLen, len(pkt)-ResponseHeaderSize, ErrBadPacket)
	}
	if c := Checksum(pkt[:end]); c != 0 {
		return 0, nil, fmt.Errorf("response checksum off by %#02x: %w", c, ErrBadPacket)
	}
	return h.Result, pkt[ResponseHeaderSize:end], nil
}
