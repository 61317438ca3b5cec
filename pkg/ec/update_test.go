// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/elog"
)

func flashRW(e *simEnv, img []byte) {
	copy(e.sim.Flash[e.sim.RW.Offset:], img)
}

func TestUpdateRWUpToDate(t *testing.T) {
	e := newSim(t)
	img := testImage(4000, 1)
	flashRW(e, img)
	e.sim.SetHashBusy(0)

	out, err := e.ch.UpdateRW(memStore{"ecrw.hash": sum(img), "ecrw": img}, ec.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, ec.UpdateUpToDate, out)
	assert.Zero(t, e.sim.Count(ec.CmdFlashErase))
	assert.Zero(t, e.sim.Count(ec.CmdFlashWrite))
	assert.Zero(t, hashCalls(e.sim, ec.HashRecalc))
	assert.Zero(t, e.sim.Count(ec.CmdRebootEC))
}

func TestUpdateRWRunningRW(t *testing.T) {
	e := newSim(t)
	e.sim.Image = ec.ImageRW
	flashRW(e, testImage(4000, 1))
	newImg := testImage(4000, 2)

	out, err := e.ch.UpdateRW(memStore{"ecrw.hash": sum(newImg), "ecrw": newImg}, ec.UpdateOptions{})
	assert.ErrorIs(t, err, ec.ErrRebootToRO)
	assert.Equal(t, ec.UpdateRebootToRO, out)

	require.Len(t, e.sim.Reboots, 1)
	assert.Equal(t, ec.RebootCold, e.sim.Reboots[0].Cmd)
	assert.Zero(t, e.sim.Count(ec.CmdFlashErase))
	assert.Zero(t, e.sim.Count(ec.CmdFlashWrite))
	assert.Len(t, e.events.OfType(elog.TypeECUpdate), 1)
}

func TestUpdateRWFromRO(t *testing.T) {
	e := newSim(t)
	flashRW(e, testImage(8000, 1))
	newImg := testImage(5000, 2)

	out, err := e.ch.UpdateRW(memStore{"ecrw.hash": sum(newImg), "ecrw": newImg}, ec.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, ec.UpdateUpdated, out)
	assert.Equal(t, newImg, e.sim.RWImage(), "no stale bytes from the larger image")

	erases := e.sim.CallsOf(ec.CmdFlashErase)
	require.Len(t, erases, 1)
	var r ec.FlashRange
	require.NoError(t, ec.Unmarshal(erases[0].Data, &r))
	assert.Equal(t, e.sim.RW.Offset, r.Offset)
	assert.Equal(t, e.sim.RW.Size, r.Size)
	assert.Zero(t, e.sim.Count(ec.CmdRebootEC))

	ev := e.events.OfType(elog.TypeECUpdate)
	require.Len(t, ev, 1)
	assert.EqualValues(t, ec.UpdateUpdated, ev[0].Code)
	assert.Equal(t, "test-boot", ev[0].BootID)
}

func TestUpdateRWHashMismatch(t *testing.T) {
	e := newSim(t)
	newImg := testImage(5000, 2)

	out, err := e.ch.UpdateRW(memStore{"ecrw.hash": sum(testImage(5000, 3)), "ecrw": newImg}, ec.UpdateOptions{})
	assert.ErrorIs(t, err, ec.ErrHashMismatch)
	assert.NotEqual(t, ec.UpdateUpdated, out)
	assert.Equal(t, 1, e.sim.Count(ec.CmdFlashErase))
}

func TestUpdateRWSkipped(t *testing.T) {
	t.Run("resume", func(t *testing.T) {
		e := newSim(t)
		out, err := e.ch.UpdateRW(memStore{"ecrw.hash": sum(nil)}, ec.UpdateOptions{Resume: true})
		require.NoError(t, err)
		assert.Equal(t, ec.UpdateSkipped, out)
		assert.Empty(t, e.sim.Calls())
	})
	t.Run("no hash", func(t *testing.T) {
		e := newSim(t)
		out, err := e.ch.UpdateRW(memStore{"ecrw": testImage(10, 0)}, ec.UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, ec.UpdateSkipped, out)
		assert.Empty(t, e.sim.Calls())
	})
}

func TestUpdateRWFailures(t *testing.T) {
	newImg := testImage(5000, 2)
	for _, tt := range []struct {
		n     string
		store memStore
		setup func(e *simEnv)
		is    error
	}{
		{
			n:     "missing image",
			store: memStore{"ecrw.hash": sum(newImg)},
			is:    fs.ErrNotExist,
		},
		{
			n:     "short hash file",
			store: memStore{"ecrw.hash": []byte{1, 2, 3}, "ecrw": newImg},
		},
		{
			n:     "hash timeout",
			store: memStore{"ecrw.hash": sum(newImg), "ecrw": newImg},
			setup: func(e *simEnv) { e.sim.HashStickyNone = true },
			is:    ec.ErrTimeout,
		},
		{
			n:     "erase fails",
			store: memStore{"ecrw.hash": sum(newImg), "ecrw": newImg},
			setup: func(e *simEnv) { e.sim.Fail(ec.CmdFlashErase, ec.ResError, 1) },
		},
		{
			n:     "image too big",
			store: memStore{"ecrw.hash": sum(newImg), "ecrw": make([]byte, 200<<10)},
		},
	} {
		t.Run(tt.n, func(t *testing.T) {
			e := newSim(t)
			if tt.setup != nil {
				tt.setup(e)
			}
			_, err := e.ch.UpdateRW(tt.store, ec.UpdateOptions{})
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "%v is not %v", err, tt.is)
			}
			assert.Zero(t, e.sim.Count(ec.CmdFlashWrite))
			assert.Len(t, e.events.OfType(elog.TypeECUpdate), 1)
		})
	}
}

func TestUpdateRWCustomNames(t *testing.T) {
	e := newSim(t)
	newImg := testImage(300, 4)
	out, err := e.ch.UpdateRW(memStore{"ec/rw.sha256": sum(newImg), "ec/rw": newImg}, ec.UpdateOptions{
		ImageName: "ec/rw",
		HashName:  "ec/rw.sha256",
	})
	require.NoError(t, err)
	assert.Equal(t, ec.UpdateUpdated, out)
}
