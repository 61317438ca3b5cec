// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/chromeec/pkg/ec"
)

func TestParseEvents(t *testing.T) {
	for _, tt := range []struct {
		n    string
		in   string
		want uint64
		err  bool
	}{
		{"hex", "0x6", 6, false},
		{"decimal", "10", 10, false},
		{"names", "lid-closed, lid-open", 3, false},
		{"one name", "keyboard-recovery", 1 << 14, false},
		{"unknown", "lid-closed,bogus", 0, true},
	} {
		t.Run(tt.n, func(t *testing.T) {
			got, err := ParseEvents(tt.in)
			if tt.err {
				var argErr ErrArgs
				assert.True(t, errors.As(err, &argErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMask(t *testing.T) {
	assert.Equal(t, "0x0", FormatMask(0))
	assert.Equal(t, "0x3 (lid-closed,lid-open)", FormatMask(3))
}

func TestArgs(t *testing.T) {
	assert.NoError(t, Args([]string{"a"}, 1, 1))
	assert.Error(t, Args(nil, 1, 1))
	assert.Error(t, Args([]string{"a", "b"}, 0, 1))
	assert.NoError(t, Args([]string{"a", "b", "c"}, 0, -1))
}

func TestChannelSim(t *testing.T) {
	Global = Options{Transport: "sim", SimRW: true}
	defer Close()

	ch, err := Channel()
	require.NoError(t, err)
	again, err := Channel()
	require.NoError(t, err)
	assert.Same(t, ch, again)
	assert.Equal(t, ec.ImageRW, ch.CurrentImage())

	require.NoError(t, Close())
	other, err := Channel()
	require.NoError(t, err)
	assert.NotSame(t, ch, other)
}

func TestChannelUnknownTransport(t *testing.T) {
	Global = Options{Transport: "carrier-pigeon"}
	_, err := Channel()
	var argErr ErrArgs
	assert.True(t, errors.As(err, &argErr))
	assert.Contains(t, Transports(), "sim")
}
