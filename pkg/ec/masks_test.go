// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec_test

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// Kinds with both a legacy set and a legacy get command.
var legacyReadWrite = []ec.MaskKind{
	ec.MaskSCI, ec.MaskSMI, ec.MaskActiveWake,
	ec.MaskLazyWakeS0ix, ec.MaskLazyWakeS3, ec.MaskLazyWakeS5,
}

func TestLegacySetGet(t *testing.T) {
	for _, k := range legacyReadWrite {
		t.Run(k.String(), func(t *testing.T) {
			e := newSim(t)
			require.NoError(t, e.ch.SetMask(k, 0x12345678))
			got, err := e.ch.GetMask(k)
			require.NoError(t, err)
			assert.EqualValues(t, 0x12345678, got)
			assert.Zero(t, e.sim.Count(ec.CmdHostEvent))
		})
	}
}

func TestLegacyTruncatesTo32Bits(t *testing.T) {
	e := newSim(t)
	require.NoError(t, e.ch.SetSCIMask(0xabcd_0000_0000_0001))
	got, err := e.ch.GetMask(ec.MaskSCI)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)
}

func TestLegacyAbsentCommands(t *testing.T) {
	e := newSim(t)
	require.False(t, e.ch.UHEPISupported())
	e.sim.ResetCalls()

	for _, k := range []ec.MaskKind{ec.MaskMain, ec.MaskAlwaysReport} {
		got, err := e.ch.GetMask(k)
		assert.NoError(t, err, k)
		assert.Zero(t, got, k)
	}
	for _, k := range []ec.MaskKind{ec.MaskMain, ec.MaskB, ec.MaskAlwaysReport} {
		assert.ErrorIs(t, e.ch.SetMask(k, 1), ec.ErrUnsupported, k)
	}
	for _, k := range []ec.MaskKind{ec.MaskSCI, ec.MaskSMI, ec.MaskAlwaysReport, ec.MaskActiveWake, ec.MaskLazyWakeS3} {
		assert.ErrorIs(t, e.ch.ClearMask(k, 1), ec.ErrUnsupported, k)
	}
	assert.Empty(t, e.sim.Calls())
}

func TestLegacyEventsB(t *testing.T) {
	e := newSim(t)
	e.sim.Raise(0x0000_0001_8000_0003)

	got, err := e.ch.GetEventsB()
	require.NoError(t, err)
	assert.EqualValues(t, 0x8000_0003, got)

	require.NoError(t, e.ch.ClearEventsB(0x1))
	got, err = e.ch.GetEventsB()
	require.NoError(t, err)
	assert.EqualValues(t, 0x8000_0002, got)
	assert.Equal(t, 2, e.sim.Count(ec.CmdHostEventGetB))
	assert.Equal(t, 1, e.sim.Count(ec.CmdHostEventClearB))
}

func TestUHEPIOneCallPerAction(t *testing.T) {
	e := newSim(t)
	e.sim.UHEPI = true
	require.True(t, e.ch.UHEPISupported())

	for _, k := range ec.MaskKinds {
		for _, tt := range []struct {
			n  string
			do func() error
		}{
			{n: "get", do: func() error { _, err := e.ch.GetMask(k); return err }},
			{n: "set", do: func() error { return e.ch.SetMask(k, 0x1_0000_0000) }},
			{n: "clear", do: func() error { return e.ch.ClearMask(k, 0x1_0000_0000) }},
		} {
			e.sim.ResetCalls()
			_ = tt.do()
			calls := e.sim.Calls()
			require.Len(t, calls, 1, "%v %s", k, tt.n)
			assert.Equal(t, ec.CmdHostEvent, calls[0].Cmd, "%v %s", k, tt.n)
			assert.EqualValues(t, k, calls[0].Data[1], "%v %s", k, tt.n)
		}
	}
	assert.Equal(t, 1, e.sim.Count(ec.CmdGetFeatures))
}

func TestUHEPIMasks(t *testing.T) {
	e := newSim(t)
	e.sim.UHEPI = true

	require.NoError(t, e.ch.SetLazyWakeMasks(0x5, 0x3, 0))
	assert.EqualValues(t, 0x5, e.sim.Mask(ec.MaskLazyWakeS5))
	assert.EqualValues(t, 0x3, e.sim.Mask(ec.MaskLazyWakeS3))
	assert.Equal(t, 3, e.sim.Count(ec.CmdHostEvent), "zero S0ix mask is not sent")

	require.NoError(t, e.ch.SetWakeMask(0xf_0000_0000))
	got, err := e.ch.GetMask(ec.MaskActiveWake)
	require.NoError(t, err)
	assert.EqualValues(t, 0xf_0000_0000, got)

	require.NoError(t, e.ch.ClearMask(ec.MaskActiveWake, 0x1_0000_0000))
	got, err = e.ch.GetMask(ec.MaskActiveWake)
	require.NoError(t, err)
	assert.EqualValues(t, 0xe_0000_0000, got)
}

func TestLazyWakeMasksLegacy(t *testing.T) {
	e := newSim(t)
	require.NoError(t, e.ch.SetLazyWakeMasks(0x5, 0x3, 0x1))
	assert.Zero(t, e.sim.Count(ec.CmdHostEventSetWakeMask))
}

func TestLazyWakeMasksContinueAfterFailure(t *testing.T) {
	e := newSim(t)
	e.sim.UHEPI = true
	e.sim.Fail(ec.CmdHostEvent, ec.ResError, 1)

	err := e.ch.SetLazyWakeMasks(0x1, 0x2, 0x4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ec.MaskLazyWakeS5.String())
	assert.Equal(t, 3, e.sim.Count(ec.CmdHostEvent))
	assert.Zero(t, e.sim.Mask(ec.MaskLazyWakeS5))
	assert.EqualValues(t, 0x2, e.sim.Mask(ec.MaskLazyWakeS3))
	assert.EqualValues(t, 0x4, e.sim.Mask(ec.MaskLazyWakeS0ix))

	e.sim.Fail(ec.CmdHostEvent, ec.ResError, -1)
	err = e.ch.SetLazyWakeMasks(0x1, 0x2, 0x4)
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 3)
}

func TestUHEPIQueryMemoized(t *testing.T) {
	e := newSim(t)
	e.sim.UHEPI = true

	_, err := e.ch.GetMask(ec.MaskSCI)
	require.NoError(t, err)
	_, err = e.ch.GetMask(ec.MaskSMI)
	require.NoError(t, err)
	assert.Equal(t, 1, e.sim.Count(ec.CmdGetFeatures))
	assert.Equal(t, 2, e.sim.Count(ec.CmdHostEvent))

	// The EC is not asked again once the answer is known, even if it
	// would now say something else.
	e.sim.UHEPI = false
	assert.True(t, e.ch.UHEPISupported())
	assert.Equal(t, 1, e.sim.Count(ec.CmdGetFeatures))
}

func TestUHEPIQueryFailureIsRemembered(t *testing.T) {
	e := newSim(t)
	e.sim.UHEPI = true
	e.sim.Fail(ec.CmdGetFeatures, ec.ResError, 1)

	// A failed query settles on the legacy commands for the boot.
	for i := 0; i < 3; i++ {
		_, err := e.ch.GetMask(ec.MaskSCI)
		require.NoError(t, err)
	}
	assert.False(t, e.ch.UHEPISupported())
	assert.Equal(t, 1, e.sim.Count(ec.CmdGetFeatures))
	assert.Equal(t, 3, e.sim.Count(ec.CmdHostEventGetSCIMask))
	assert.Zero(t, e.sim.Count(ec.CmdHostEvent))
}

func TestParseMaskKind(t *testing.T) {
	for _, k := range ec.MaskKinds {
		got, err := ec.ParseMaskKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ec.ParseMaskKind("bogus")
	assert.Error(t, err)
}
