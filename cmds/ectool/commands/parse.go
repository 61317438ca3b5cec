// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// ParseUint parses a decimal, hex or octal number of at most bits bits.
func ParseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, ErrArgs{Err: err}
	}
	return v, nil
}

// ParseEvents parses a host event mask given as a number or as a comma
// separated list of event names.
func ParseEvents(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, nil
	}
	var m uint64
	for _, name := range strings.Split(s, ",") {
		e, err := ec.ParseHostEvent(strings.TrimSpace(name))
		if err != nil {
			return 0, ErrArgs{Err: err}
		}
		m |= e.Mask()
	}
	return m, nil
}

// FormatMask prints a host event mask with its event names.
func FormatMask(m uint64) string {
	if m == 0 {
		return "0x0"
	}
	return fmt.Sprintf("%#x (%s)", m, ec.FormatEvents(m))
}
