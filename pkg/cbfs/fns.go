// Copyright 2018-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cbfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Debug traces parsing when set, e.g. to log.Printf.
var Debug = func(format string, v ...interface{}) {}

// Read reads things in in BE format, which they are supposed to be in.
func Read(r io.Reader, f interface{}) error {
	if err := binary.Read(r, Endian, f); err != nil {
		if err == io.EOF {
			Debug("Read %T: reached EOF", f)
		}
		return err
	}
	return nil
}

// Write writes things in BE format.
func Write(w io.Writer, f interface{}) error {
	return binary.Write(w, Endian, f)
}

func recString(n string, off uint32, typ string, sz uint32, compress string) string {
	return fmt.Sprintf("%-32s 0x%-8x %-24s 0x%-8x %-4s", n, off, typ, sz, compress)
}

// Clean up non-printable and other characters. 0xfffd is the Unicode tofu char,
// aka 'REPLACEMENT CHARACTER'.
func cleanString(n string) string {
	return strings.Map(func(r rune) rune {
		if r != 0xfffd && (unicode.IsPrint(r) || unicode.IsGraphic(r)) {
			return r
		}
		return -1
	}, n)
}

func align(v, a uint32) uint32 {
	return (v + a - 1) &^ (a - 1)
}
