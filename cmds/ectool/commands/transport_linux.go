// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"io"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ec/crosdev"
)

func init() {
	RegisterTransport("dev", func(o *Options) (ec.Transport, io.Closer, error) {
		t, err := crosdev.Open(o.Device)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	})
}
