// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"bytes"
	"errors"
	"testing"
)

func TestWireGolden(t *testing.T) {
	for _, tt := range []struct {
		n    string
		v    interface{}
		want []byte
	}{
		{n: "hello", v: &HelloParams{InData: 0x10203040}, want: []byte{0x40, 0x30, 0x20, 0x10}},
		{
			n:    "host event",
			v:    &HostEventParams{Action: 1, MaskType: MaskSCI, Value: 0x0102030405060708},
			want: []byte{0x01, 0x02, 0x00, 0x00, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
		},
		{n: "legacy mask", v: &HostEventMask{Mask: 0xdeadbeef}, want: []byte{0xef, 0xbe, 0xad, 0xde}},
		{
			n:    "flash range",
			v:    &FlashRange{Offset: 0x20000, Size: 0x1000},
			want: []byte{0x00, 0x00, 0x02, 0x00, 0x00, 0x10, 0x00, 0x00},
		},
		{n: "cmd versions", v: &CmdVersionsParams{Cmd: uint16(CmdFlashWrite)}, want: []byte{0x12, 0x00}},
		{n: "reboot", v: &RebootParams{Cmd: RebootCold, Flags: RebootFlagOnAPShutdown}, want: []byte{0x04, 0x02}},
		{
			n:    "device event",
			v:    &DeviceEventParams{EventMask: 0x5, Param: DeviceEventSetEnabled},
			want: []byte{0x05, 0x00, 0x00, 0x00, 0x02},
		},
		{
			n:    "cbi get",
			v:    &CBIGetParams{Tag: CBITagSKUID},
			want: []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{n: "usb charge", v: &USBChargeModeParams{Port: 1, ModeInhibit: 0x84}, want: []byte{0x01, 0x84}},
		{
			n:    "charge state",
			v:    &ChargeStateParams{Cmd: ChargeStateCmdGetParam, Param: ChargeStateParamLimitPower},
			want: []byte{0x01, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{n: "charger limit", v: &ChargerLimitParams{CurrentLim: 0x0bb8, VoltageLim: 0x2ee0}, want: []byte{0xb8, 0x0b, 0xe0, 0x2e}},
		{n: "pd control", v: &USBPDControlParams{Port: 1, Role: PDRoleForceSink}, want: []byte{0x01, 0x03, 0x00, 0x00}},
		{n: "get amode", v: &AltModeParams{SVIDIndex: 2, Port: 1}, want: []byte{0x02, 0x00, 0x01}},
		{n: "i2c msg", v: &I2CPassthruMsg{AddrFlags: 0x50 | I2CFlagRead, Len: 4}, want: []byte{0x50, 0x80, 0x04, 0x00}},
		{
			n:    "flash region",
			v:    &FlashRegionInfoParams{Region: FlashRegionRW},
			want: []byte{0x01, 0x00, 0x00, 0x00},
		},
	} {
		t.Run(tt.n, func(t *testing.T) {
			if got := Marshal(tt.v); !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestWireSizes(t *testing.T) {
	for _, tt := range []struct {
		n    string
		v    interface{}
		want int
	}{
		{n: "version", v: &VersionResponse{}, want: 100},
		{n: "chip info", v: &ChipInfo{}, want: 96},
		{n: "protocol info", v: &ProtocolInfo{}, want: 12},
		{n: "features", v: &FeaturesResponse{}, want: 8},
		{n: "flash info v0", v: &FlashInfoV0{}, want: 16},
		{n: "flash info v1", v: &FlashInfo{}, want: 24},
		{n: "flash protect", v: &FlashProtect{}, want: 12},
		{n: "vboot hash params", v: &VbootHashParams{}, want: 76},
		{n: "vboot hash", v: &VbootHash{}, want: 76},
		{n: "vbnv context", v: &VbNvContextParams{}, want: 20},
		{n: "host event", v: &HostEventParams{}, want: 12},
		{n: "uptime", v: &UptimeInfo{}, want: 44},
		{n: "cbi set", v: &CBISetHeader{}, want: 12},
		{n: "pd power info", v: &USBPDPowerInfo{}, want: 16},
		{n: "pd control", v: &USBPDControl{}, want: 4},
		{n: "amode", v: &AltMode{}, want: 28},
		{n: "charge state", v: &ChargeStateParams{}, want: 9},
	} {
		t.Run(tt.n, func(t *testing.T) {
			if got := Size(tt.v); got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestUnmarshalVbootHash(t *testing.T) {
	b := make([]byte, 76)
	b[0] = byte(HashStatusDone)
	b[2] = 32
	copy(b[4:], []byte{0xfd, 0xff, 0xff, 0xff, 0x00, 0x00, 0x01, 0x00})
	for i := 0; i < 32; i++ {
		b[12+i] = byte(i)
	}
	var h VbootHash
	if err := Unmarshal(b, &h); err != nil {
		t.Fatal(err)
	}
	if h.Status != HashStatusDone || h.Offset != HashOffsetRW || h.Size != 0x10000 {
		t.Errorf("got %+v", h)
	}
	if len(h.Sum()) != 32 || h.Sum()[31] != 31 {
		t.Errorf("digest % x", h.Sum())
	}
	if err := Unmarshal(b[:75], &h); !errors.Is(err, ErrShortResponse) {
		t.Errorf("short: got %v", err)
	}
}

func TestPutCString(t *testing.T) {
	var b [8]byte
	PutCString(b[:], "0123456789")
	if got := cString(b[:]); got != "0123456" {
		t.Errorf("got %q", got)
	}
	PutCString(b[:], "ab")
	if got := cString(b[:]); got != "ab" {
		t.Errorf("got %q", got)
	}
}
