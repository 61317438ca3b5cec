// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package initcmd

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/cbfs"
	"github.com/linuxboot/chromeec/pkg/compression"
	"github.com/linuxboot/chromeec/pkg/ec"
)

func simSession(t *testing.T) *bytes.Buffer {
	t.Helper()
	commands.Global = commands.Options{Transport: "sim"}
	var out bytes.Buffer
	commands.Stdout = &out
	t.Cleanup(func() { commands.Close() })
	return &out
}

func TestInitUpdatesAndJumps(t *testing.T) {
	out := simSession(t)
	img := bytes.Repeat([]byte{0xec, 0x01}, 700)
	sum := sha256.Sum256(img)

	b, err := cbfs.NewBuilder(0x10000)
	require.NoError(t, err)
	b.Add("ecrw", cbfs.TypeRaw, img, compression.None)
	b.Add("ecrw.hash", cbfs.TypeRaw, sum[:], compression.None)
	rom, err := b.Bytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "coreboot.rom")
	require.NoError(t, os.WriteFile(path, rom, 0o644))

	require.NoError(t, (&Command{Image: path}).Execute(nil))
	assert.Contains(t, out.String(), "EC RW:         updated")
	assert.Contains(t, out.String(), "jumped to RW")
	assert.Contains(t, out.String(), "automatic fan control enabled")

	ch, err := commands.Channel()
	require.NoError(t, err)
	v, err := ch.Version()
	require.NoError(t, err)
	assert.Equal(t, ec.ImageRW, v.Current)
}

func TestInitResume(t *testing.T) {
	out := simSession(t)
	require.NoError(t, (&Command{Resume: true}).Execute(nil))
	assert.Contains(t, out.String(), "EC RW:         skipped")
	assert.NotContains(t, out.String(), "jumped")
	assert.NotContains(t, out.String(), "fan")
}
