// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package commands

import (
	"io"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ec/lpc"
	"github.com/linuxboot/chromeec/pkg/log"
)

func init() {
	RegisterTransport("lpc", func(o *Options) (ec.Transport, io.Closer, error) {
		t := lpc.New()
		if o.Debug {
			lpc.Debug = log.Debugf
		}
		return t, nopCloser{}, nil
	})
}
