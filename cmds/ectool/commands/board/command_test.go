// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
)

func simSession(t *testing.T) *bytes.Buffer {
	t.Helper()
	commands.Global = commands.Options{Transport: "sim"}
	var out bytes.Buffer
	commands.Stdout = &out
	t.Cleanup(func() { commands.Close() })
	return &out
}

func TestCBI(t *testing.T) {
	out := simSession(t)
	cmd := &CBI{}

	require.NoError(t, cmd.Execute([]string{"set", "sku-id", "0x2a"}))
	require.NoError(t, cmd.Execute([]string{"get", "sku-id"}))
	assert.Contains(t, out.String(), "sku-id: 42 (0x2a)")

	out.Reset()
	require.NoError(t, cmd.Execute([]string{"set", "oem-name", "Acme"}))
	require.NoError(t, cmd.Execute([]string{"get", "oem-name"}))
	assert.Equal(t, "oem-name: Acme\n", out.String())

	var argErr commands.ErrArgs
	assert.ErrorAs(t, cmd.Execute([]string{"get", "colour"}), &argErr)
	assert.ErrorAs(t, cmd.Execute([]string{"set", "sku-id"}), &argErr)
}

func TestRTC(t *testing.T) {
	out := simSession(t)
	cmd := &RTC{}

	require.NoError(t, cmd.Execute([]string{"set", "1600000000"}))
	require.NoError(t, cmd.Execute(nil))
	assert.Contains(t, out.String(), "1600000000 (2020-09-13T12:26:40Z)")
}

func TestBacklight(t *testing.T) {
	out := simSession(t)
	cmd := &Backlight{}

	require.NoError(t, cmd.Execute([]string{"150"}))
	require.NoError(t, cmd.Execute(nil))
	assert.Contains(t, out.String(), "49%")

	var argErr commands.ErrArgs
	assert.ErrorAs(t, cmd.Execute([]string{"-3"}), &argErr)
}

func TestVbNv(t *testing.T) {
	out := simSession(t)
	cmd := &VbNv{}

	block := "00112233445566778899aabbccddeeff"
	require.NoError(t, cmd.Execute([]string{"write", block}))
	require.NoError(t, cmd.Execute(nil))
	assert.Equal(t, block+"\n", out.String())

	assert.Error(t, cmd.Execute([]string{"write", "0011"}))
}
