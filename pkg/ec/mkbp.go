// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
)

// MKBPEventType is the kind of an event queued by the EC for the host.
type MKBPEventType uint8

// MKBP event types.
const (
	MKBPKeyMatrix MKBPEventType = iota
	MKBPHostEvent
	MKBPSensorFIFO
	MKBPButton
	MKBPSwitch
	MKBPFingerprint
	MKBPSysRq
	MKBPHostEvent64
	MKBPCECEvent
	MKBPCECMessage
)

var mkbpNames = [...]string{
	"key-matrix", "host-event", "sensor-fifo", "button", "switch",
	"fingerprint", "sysrq", "host-event64", "cec-event", "cec-message",
}

func (t MKBPEventType) String() string {
	if int(t) < len(mkbpNames) {
		return mkbpNames[t]
	}
	return fmt.Sprintf("mkbp(%d)", uint8(t))
}

const (
	mkbpTypeMask = 0x7f
	mkbpHasMore  = 0x80
	// MKBPDataSize is the largest event payload.
	MKBPDataSize = 16
)

// MKBPEvent is a decoded GET_NEXT_EVENT response.
type MKBPEvent struct {
	Type MKBPEventType
	// More is set when further events are queued.
	More bool
	Data []byte
}

// HostEvents returns the host event mask carried by a host event.
func (e *MKBPEvent) HostEvents() uint64 {
	switch {
	case e.Type == MKBPHostEvent && len(e.Data) >= 4:
		return uint64(Endian.Uint32(e.Data))
	case e.Type == MKBPHostEvent64 && len(e.Data) >= 8:
		return Endian.Uint64(e.Data)
	}
	return 0
}

// NextMKBPEvent takes the oldest queued MKBP event from the EC. An empty
// queue fails with an UNAVAILABLE result.
func (c *Channel) NextMKBPEvent() (*MKBPEvent, error) {
	buf := make([]byte, 1+MKBPDataSize)
	n, err := c.Command(CmdGetNextEvent, 0, nil, buf)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%v: empty event: %w", CmdGetNextEvent, ErrShortResponse)
	}
	return &MKBPEvent{
		Type: MKBPEventType(buf[0] & mkbpTypeMask),
		More: buf[0]&mkbpHasMore != 0,
		Data: append([]byte(nil), buf[1:n]...),
	}, nil
}
