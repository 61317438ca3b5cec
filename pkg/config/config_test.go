// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/linuxboot/chromeec/pkg/ec"
)

const boardYAML = `
name: sim
events:
  log: [lid-closed, power-button]
  sci: [lid-open, ac-connected]
  smi: 0x1
  s3-wake: [lid-open, key-pressed]
  s5-wake: [power-button]
  s3-device-events: [trackpad, wifi]
swsync:
  image: ecrw.custom
event-log: /var/log/ec.elog
`

func TestParse(t *testing.T) {
	b, err := Parse([]byte(boardYAML))
	require.NoError(t, err)

	assert.Equal(t, "sim", b.Name)
	assert.Equal(t, Mask(ec.EventMask(ec.EventLidClosed, ec.EventPowerButton)), b.Events.Log)
	assert.Equal(t, Mask(ec.EventMask(ec.EventLidOpen, ec.EventACConnected)), b.Events.SCI)
	assert.Equal(t, Mask(1), b.Events.SMI)
	assert.Equal(t, Mask(ec.EventMask(ec.EventLidOpen, ec.EventKeyPressed)), b.Events.S3Wake)
	assert.Equal(t, Mask(ec.EventPowerButton.Mask()), b.Events.S5Wake)
	assert.Zero(t, b.Events.S0ixWake)
	assert.Equal(t, DeviceMask(0x5), b.Events.S3DeviceEvents)
	assert.Equal(t, "/var/log/ec.elog", b.EventLog)

	opts := b.UpdateOptions(true)
	assert.True(t, opts.Resume)
	assert.Equal(t, "ecrw.custom", opts.ImageName)
	assert.Equal(t, ec.DefaultHashName, opts.HashName)
}

func TestParseErrors(t *testing.T) {
	for _, tt := range []struct {
		n    string
		yaml string
		want string
	}{
		{"unknown event", "events:\n  sci: [no-such-event]\n", "unknown host event"},
		{"bad number", "events:\n  sci: lots\n", "event mask"},
		{"map mask", "events:\n  sci: {a: 1}\n", "number or a list"},
		{"unknown device event", "events:\n  s3-device-events: [modem]\n", "unknown device event"},
		{"not yaml", "events: [", "failed to parse"},
	} {
		t.Run(tt.n, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	b := Default()
	b.SWSync.Image = ""
	b.SWSync.Hash = ""
	b.Events.SCI = Mask(ec.EventLidOpen.Mask())
	b.Events.SMI = Mask(ec.EventLidOpen.Mask())

	err := b.Validate()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 3)

	b.SWSync.Disable = true
	b.Events.SMI = 0
	assert.NoError(t, b.Validate())
}

func TestMaskMarshal(t *testing.T) {
	out, err := yaml.Marshal(struct {
		M Mask `yaml:"m"`
	}{Mask(ec.EventMask(ec.EventLidClosed, ec.EventRTC))})
	require.NoError(t, err)
	assert.Equal(t, "m:\n    - lid-closed\n    - rtc\n", string(out))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(boardYAML), 0o644))
	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sim", b.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
