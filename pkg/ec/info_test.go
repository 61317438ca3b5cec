// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/elog"
)

func TestVersionAndImageCache(t *testing.T) {
	e := newSim(t)
	v, err := e.ch.Version()
	require.NoError(t, err)
	assert.Equal(t, &ec.Version{RO: "sim_v1.0.0-ro", RW: "sim_v1.0.0-rw", Current: ec.ImageRO}, v)

	e.sim.Image = ec.ImageRW
	assert.Equal(t, ec.ImageRO, e.ch.CurrentImage())
	assert.True(t, e.ch.RunningRO())
	assert.Equal(t, 1, e.sim.Count(ec.CmdGetVersion))
}

func TestCurrentImageRetriesUntilKnown(t *testing.T) {
	e := newSim(t)
	e.sim.Image = ec.ImageRW
	e.sim.Fail(ec.CmdGetVersion, ec.ResBusy, 1)

	assert.Equal(t, ec.ImageUnknown, e.ch.CurrentImage())
	assert.Equal(t, ec.ImageRW, e.ch.CurrentImage())
	assert.Equal(t, ec.ImageRW, e.ch.CurrentImage())
	assert.Equal(t, 2, e.sim.Count(ec.CmdGetVersion))
}

func TestQueries(t *testing.T) {
	e := newSim(t)
	e.sim.BoardVersion = 3
	e.sim.Features = []ec.Feature{ec.FeatureFlash, ec.FeatureEFS2}

	bi, err := e.ch.BuildInfo()
	require.NoError(t, err)
	assert.Equal(t, e.sim.Build, bi)

	chip, err := e.ch.ChipInfo()
	require.NoError(t, err)
	assert.Equal(t, &e.sim.Chip, chip)

	bv, err := e.ch.BoardVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 3, bv)

	pi, err := e.ch.ProtocolInfo()
	require.NoError(t, err)
	assert.EqualValues(t, ec.HostPacketSize, pi.MaxRequestPacketSize)
	assert.EqualValues(t, 1<<3, pi.ProtocolVersions)

	ok, err := e.ch.CheckFeature(ec.FeatureEFS2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.ch.CheckFeature(ec.FeatureUnifiedWakeMasks)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, e.ch.CmdVersionSupported(ec.CmdFlashWrite, 1))
	assert.False(t, e.ch.CmdVersionSupported(ec.CmdFlashWrite, 2))
	assert.False(t, e.ch.CmdVersionSupported(ec.Cmd(0x3fff), 0))

	n, err := e.ch.USBPDPorts()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSettings(t *testing.T) {
	e := newSim(t)

	require.NoError(t, e.ch.SetSKUID(42))
	sku, err := e.ch.SKUID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, sku)

	when := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, e.ch.SetRTC(when))
	got, err := e.ch.RTC()
	require.NoError(t, err)
	assert.Equal(t, when, got)

	require.NoError(t, e.ch.SetKeyboardBacklight(150))
	pct, on, err := e.ch.KeyboardBacklight()
	require.NoError(t, err)
	assert.EqualValues(t, 49, pct)
	assert.True(t, on)

	require.NoError(t, e.ch.SetUSBChargeMode(1, ec.USBChargeModeCDP, true))
	assert.EqualValues(t, 0x82, e.sim.USBCharge[1])
	assert.Error(t, e.ch.SetUSBChargeMode(5, ec.USBChargeModeCDP, false))

	require.NoError(t, e.ch.BatteryCutoff(true))
	c := e.sim.CallsOf(ec.CmdBatteryCutOff)
	require.Len(t, c, 1)
	assert.EqualValues(t, 1, c[0].Version)
	assert.Equal(t, []byte{ec.BatteryCutoffAtShutdown}, c[0].Data)
}

func TestPostCodeOnBacklight(t *testing.T) {
	for _, tt := range []struct {
		code uint8
		want uint8
	}{
		{code: 0, want: 0},
		{code: 0x10, want: 6},
		{code: 0xff, want: 94},
	} {
		e := newSim(t)
		require.NoError(t, e.ch.Post(tt.code))
		assert.Equal(t, tt.want, e.sim.Backlight, "code %#x", tt.code)
	}
}

func TestThermalAutoFanCtrl(t *testing.T) {
	e := newSim(t)
	require.NoError(t, e.ch.ThermalAutoFanCtrl())
	assert.True(t, e.sim.AutoFan)
	c := e.sim.CallsOf(ec.CmdThermalAutoFanCtrl)
	require.Len(t, c, 1)
	assert.Empty(t, c[0].Data)
}

func TestCBI(t *testing.T) {
	e := newSim(t)
	e.sim.CBI[ec.CBITagOEMID] = []byte{7, 0, 0, 0}

	id, err := e.ch.CBIUint32(ec.CBITagOEMID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)

	require.NoError(t, e.ch.SetCBI(ec.CBITagDRAMPartNum, []byte("K4F8E304HB\x00")))
	s, err := e.ch.CBIString(ec.CBITagDRAMPartNum, 32)
	require.NoError(t, err)
	assert.Equal(t, "K4F8E304HB", s)

	_, err = e.ch.CBIUint32(ec.CBITagSKUID)
	assert.Equal(t, int(ec.ResInvalidParam), ec.Status(err))
}

func TestUptime(t *testing.T) {
	e := newSim(t)
	e.sim.Uptime.TimeSinceECBootMs = 1234
	assert.False(t, e.ch.APWatchdogReset())

	e.sim.Uptime.ECResetFlags = ec.ResetFlagAPWatchdog
	u, err := e.ch.UptimeInfo()
	require.NoError(t, err)
	assert.EqualValues(t, 1234, u.TimeSinceECBootMs)
	assert.True(t, e.ch.APWatchdogReset())
}

func TestVbootContext(t *testing.T) {
	block := []byte("0123456789abcdef")

	t.Run("roundtrip", func(t *testing.T) {
		e := newSim(t)
		require.NoError(t, e.ch.WriteVbootContext(block))
		got, err := e.ch.ReadVbootContext()
		require.NoError(t, err)
		assert.Equal(t, block, got)
		assert.Empty(t, e.clock.Sleeps())
	})
	t.Run("flaky", func(t *testing.T) {
		e := newSim(t)
		e.sim.Fail(ec.CmdVbNvContext, ec.ResError, 2)
		_, err := e.ch.ReadVbootContext()
		require.NoError(t, err)
		assert.Equal(t, 3, e.sim.Count(ec.CmdVbNvContext))
		assert.Equal(t, []time.Duration{ec.VbNvContextDelay, ec.VbNvContextDelay}, e.clock.Sleeps())
	})
	t.Run("broken", func(t *testing.T) {
		e := newSim(t)
		e.sim.Fail(ec.CmdVbNvContext, ec.ResError, -1)
		err := e.ch.WriteVbootContext(block)
		assert.Equal(t, int(ec.ResError), ec.Status(err))
		assert.Equal(t, ec.VbNvContextTries, e.sim.Count(ec.CmdVbNvContext))
	})
	t.Run("bad size", func(t *testing.T) {
		e := newSim(t)
		assert.Error(t, e.ch.WriteVbootContext(block[:4]))
		assert.Empty(t, e.sim.Calls())
	})
}

func TestEFSVerify(t *testing.T) {
	e := newSim(t)
	assert.NoError(t, e.ch.EFSVerify(ec.FlashRegionRW), "EC without EFS")

	e.sim.EFS = true
	assert.NoError(t, e.ch.EFSVerify(ec.FlashRegionRW))

	e.sim.Fail(ec.CmdEFSVerify, ec.ResError, 1)
	assert.Error(t, e.ch.EFSVerify(ec.FlashRegionRW))
}

func TestRebootAndWait(t *testing.T) {
	e := newSim(t)
	e.sim.HelloFailsAfterReboot = 3

	require.NoError(t, e.ch.RebootAndWait(ec.RebootJumpRW, 0))
	assert.Equal(t, ec.ImageRW, e.sim.Image)
	assert.Equal(t, 4, e.sim.Count(ec.CmdHello))
	assert.Len(t, e.clock.Sleeps(), 4)
	for _, d := range e.clock.Sleeps() {
		assert.Equal(t, ec.RebootHelloInterval, d)
	}
	assert.Len(t, e.events.OfType(elog.TypeECReboot), 1)
}

func TestRebootAndWaitTimeout(t *testing.T) {
	e := newSim(t)
	e.sim.Fail(ec.CmdHello, ec.ResBusy, -1)

	err := e.ch.RebootAndWait(ec.RebootCold, 0)
	assert.ErrorIs(t, err, ec.ErrTimeout)
	assert.Equal(t, int(ec.RebootHelloTimeout/ec.RebootHelloInterval), e.sim.Count(ec.CmdHello))
}

func TestJumpToRW(t *testing.T) {
	e := newSim(t)
	assert.Equal(t, ec.ImageRO, e.ch.CurrentImage())
	require.NoError(t, e.ch.JumpToRW())
	assert.Equal(t, ec.ImageRW, e.sim.Image)
	assert.Equal(t, 2, e.sim.Count(ec.CmdGetVersion))
}
