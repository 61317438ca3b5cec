// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ecsim simulates a ChromeOS EC well enough to drive the host
// side of the host command protocol: event masks for legacy and unified
// firmware, flash with RO and RW regions, the vboot hash engine, reboots
// and the assorted board queries.
//
// An EC serves requests directly as an ec.Transport, or as protocol v3
// packets through HandlePacket for the packet based transports.
package ecsim

import (
	"sync"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// Call is a request the simulator received.
type Call struct {
	Cmd     ec.Cmd
	Version uint8
	Device  uint8
	Data    []byte
}

type fault struct {
	res   ec.Result
	err   error
	times int
}

// EC is a simulated EC. Set the exported fields before the first request;
// afterwards use the methods, which lock.
type EC struct {
	mu sync.Mutex

	// UHEPI enables the unified HOST_EVENT command and advertises it.
	UHEPI bool
	// Features are advertised by GET_FEATURES in addition to UHEPI.
	Features []ec.Feature

	Image     ec.Image
	VersionRO string
	VersionRW string
	Build     string
	Chip      ec.Chip

	// Flash is the whole EC flash. RO and RW locate the images in it.
	Flash          []byte
	RO, RW         ec.FlashRegion
	WriteBlockSize uint32
	EraseBlockSize uint32
	FlashProtect   uint32

	// Versions overrides the command version masks reported by
	// GET_CMD_VERSIONS and enforced on requests.
	Versions map[ec.Cmd]uint32

	// Zero packet sizes make GET_PROTOCOL_INFO unsupported.
	MaxRequestPacket  uint16
	MaxResponsePacket uint16

	// HashState is the state of the hash engine. After a START or RECALC
	// the engine reports busy for HashBusyPolls GETs. With HashStickyNone
	// it never produces a hash.
	HashState      ec.HashStatus
	HashBusyPolls  int
	HashStickyNone bool
	hashBusyLeft   int
	hashOffset     uint32
	hashSize       uint32
	digest         []byte

	// Pending host events; EventsB is the copy the host reads at boot.
	Events  uint64
	EventsB uint64
	masks   map[ec.MaskKind]uint64

	DeviceEvents        uint32
	EnabledDeviceEvents uint32

	BoardVersion uint16
	SKU          uint32
	CBI          map[ec.CBITag][]byte
	RTC          uint32
	Backlight    uint8
	USBCharge    map[uint8]uint8
	PDPorts      uint8
	Uptime       ec.UptimeInfo
	VbNv         [ec.VbNvBlockSize]byte
	// EFS enables EFS_VERIFY.
	EFS bool

	// AutoFan is set by THERMAL_AUTO_FAN_CTRL.
	AutoFan bool
	// Charger answers USB_PD_POWER_INFO; ChargerLimit holds the last
	// dedicated charger override.
	Charger      ec.USBPDPowerInfo
	ChargerLimit ec.ChargerLimitParams
	LimitPower   bool
	PDRoles      map[uint8]ec.PDRole
	// AltModes lists the SVIDs each PD port has entered.
	AltModes map[uint8][]uint16
	// MKBP is the queue GET_NEXT_EVENT serves from.
	MKBP []ec.MKBPEvent
	// I2C maps 7-bit addresses on the EC's first I2C port to register
	// files; registers auto-increment.
	I2C map[uint8][]byte

	// Reboots lists every REBOOT_EC received. HelloFailsAfterReboot
	// HELLOs fail with BUSY after each reboot.
	Reboots               []ec.RebootParams
	HelloFailsAfterReboot int
	helloFails            int

	calls  []Call
	faults map[ec.Cmd]*fault
}

// New returns a legacy EC running RO with 256 KiB of flash split evenly
// between RO and RW.
func New() *EC {
	const size = 256 << 10
	s := &EC{
		Image:     ec.ImageRO,
		VersionRO: "sim_v1.0.0-ro",
		VersionRW: "sim_v1.0.0-rw",
		Build:     "sim_v1.0.0 2021-01-01 builder@chromeec",
		Chip:      ec.Chip{Vendor: "sim", Name: "ecsim", Revision: "0"},

		Flash:          make([]byte, size),
		RO:             ec.FlashRegion{Offset: 0, Size: size / 2},
		RW:             ec.FlashRegion{Offset: size / 2, Size: size / 2},
		WriteBlockSize: 4,
		EraseBlockSize: 0x1000,

		MaxRequestPacket:  ec.HostPacketSize,
		MaxResponsePacket: ec.HostPacketSize,

		HashState: ec.HashStatusNone,

		masks:     map[ec.MaskKind]uint64{},
		CBI:       map[ec.CBITag][]byte{},
		USBCharge: map[uint8]uint8{},
		PDPorts:   2,
		PDRoles:   map[uint8]ec.PDRole{},
		AltModes:  map[uint8][]uint16{},
		I2C:       map[uint8][]byte{},
		faults:    map[ec.Cmd]*fault{},
	}
	for i := range s.Flash {
		s.Flash[i] = 0xff
	}
	return s
}

// Fail makes the next times requests for cmd fail with res. A negative
// times fails forever.
func (s *EC) Fail(cmd ec.Cmd, res ec.Result, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[cmd] = &fault{res: res, times: times}
}

// FailTransport makes the next times requests for cmd fail below the
// protocol with err.
func (s *EC) FailTransport(cmd ec.Cmd, err error, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[cmd] = &fault{err: err, times: times}
}

// Calls returns every request received.
func (s *EC) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the requests received for cmd.
func (s *EC) CallsOf(cmd ec.Cmd) []Call {
	var r []Call
	for _, c := range s.Calls() {
		if c.Cmd == cmd {
			r = append(r, c)
		}
	}
	return r
}

// Count returns how many requests for cmd were received.
func (s *EC) Count(cmd ec.Cmd) int {
	return len(s.CallsOf(cmd))
}

// ResetCalls forgets the recorded requests.
func (s *EC) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Mask returns the stored value of a mask.
func (s *EC) Mask(k ec.MaskKind) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.masks[s.maskSlot(k)]
}

// QueueMKBP appends events to the MKBP queue.
func (s *EC) QueueMKBP(events ...ec.MKBPEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MKBP = append(s.MKBP, events...)
}

// Raise sets host events pending in both copies.
func (s *EC) Raise(events uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events |= events
	s.EventsB |= events
}

// Send implements ec.Transport.
func (s *EC) Send(req *ec.Request, resp []byte) (int, ec.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{
		Cmd:     req.Command,
		Version: req.Version,
		Device:  req.Device,
		Data:    append([]byte(nil), req.Data...),
	})
	if f := s.faults[req.Command]; f != nil && f.times != 0 {
		if f.times > 0 {
			f.times--
		}
		if f.err != nil {
			return 0, 0, f.err
		}
		return 0, f.res, nil
	}
	if req.Device != 0 {
		return 0, ec.ResInvalidCommand, nil
	}
	out, res := s.dispatch(req)
	if res != ec.ResSuccess {
		return 0, res, nil
	}
	if len(out) > len(resp) {
		return 0, ec.ResResponseTooBig, nil
	}
	return copy(resp, out), ec.ResSuccess, nil
}

// HandlePacket serves one protocol v3 request packet and returns the
// response packet.
func (s *EC) HandlePacket(pkt []byte) []byte {
	req, res := ec.DecodeRequestPacket(pkt)
	if res != ec.ResSuccess {
		return ec.EncodeResponsePacket(res, nil)
	}
	if code := uint16(req.Command); code >= 0x4000 {
		req.Device = uint8(code / 0x4000)
		req.Command = ec.Cmd(code % 0x4000)
	}
	max := ec.HostPacketSize
	if s.MaxResponsePacket != 0 {
		max = int(s.MaxResponsePacket)
	}
	resp := make([]byte, max-ec.ResponseHeaderSize)
	n, res, err := s.Send(req, resp)
	if err != nil {
		return ec.EncodeResponsePacket(ec.ResBusError, nil)
	}
	if res != ec.ResSuccess {
		return ec.EncodeResponsePacket(res, nil)
	}
	return ec.EncodeResponsePacket(ec.ResSuccess, resp[:n])
}

var _ ec.Transport = (*EC)(nil)
