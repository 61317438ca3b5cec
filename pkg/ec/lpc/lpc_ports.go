// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package lpc

import "github.com/u-root/u-root/pkg/memio"

// New returns a Transport using the real I/O ports. The caller needs
// access to /dev/port.
func New() *Transport {
	return &Transport{
		In:  memio.In,
		Out: memio.Out,
	}
}
