// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fmap

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func pad32(s string) []byte {
	return []byte(s + strings.Repeat("\x00", 32-len(s)))
}

// An EC flash map is stored in little-endian.
var ecFlash = bytes.Join([][]byte{
	// Arbitrary data
	bytes.Repeat([]byte{0xff}, 0x40),

	// Signature
	Signature,
	// VerMajor, VerMinor
	{1, 1},
	// Base
	{0, 0, 0, 0, 0, 0, 0, 0},
	// Size
	{0x00, 0x00, 0x08, 0x00},
	// Name (32 bytes)
	pad32("EC_FMAP"),
	// NAreas
	{0x02, 0x00},

	// Areas[0].Offset
	{0x00, 0x00, 0x00, 0x00},
	// Areas[0].Size
	{0x00, 0x00, 0x04, 0x00},
	// Areas[0].Name (32 bytes)
	pad32("EC_RO"),
	// Areas[0].Flags
	{0x05, 0x00},

	// Areas[1].Offset
	{0x00, 0x00, 0x04, 0x00},
	// Areas[1].Size
	{0x00, 0x00, 0x04, 0x00},
	// Areas[1].Name (32 bytes)
	pad32("EC_RW"),
	// Areas[1].Flags
	{0x00, 0x00},
}, []byte{})

func TestParseECFMap(t *testing.T) {
	fmap, m, err := Read(bytes.NewReader(ecFlash))
	if err != nil {
		t.Fatal(err)
	}
	if m.Start != 0x40 {
		t.Errorf("Start: got %#x, want 0x40", m.Start)
	}
	if got := fmap.Name.String(); got != "EC_FMAP" {
		t.Errorf("Name: got %q, want EC_FMAP", got)
	}
	if fmap.Size != 0x80000 || fmap.NAreas != 2 {
		t.Errorf("Header: got %+v", fmap.Header)
	}
	rw, err := fmap.Lookup(AreaECRW)
	if err != nil {
		t.Fatal(err)
	}
	if rw.Offset != 0x40000 || rw.Size != 0x40000 {
		t.Errorf("EC_RW: got %#x+%#x, want 0x40000+0x40000", rw.Offset, rw.Size)
	}
	if got := FlagNames(fmap.Areas[0].Flags); got != "STATIC|READ_ONLY" {
		t.Errorf("FlagNames: got %q", got)
	}
}

func TestBuildMatchesGolden(t *testing.T) {
	ro, err := NewArea(AreaECRO, 0, 0x40000, FmapAreaStatic|FmapAreaReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	rw, err := NewArea(AreaECRW, 0x40000, 0x40000, 0)
	if err != nil {
		t.Fatal(err)
	}
	f, err := New("EC_FMAP", 0x80000, ro, rw)
	if err != nil {
		t.Fatal(err)
	}
	f.VerMinor = 1
	if got, want := f.Bytes(), ecFlash[0x40:]; !bytes.Equal(got, want) {
		t.Errorf("Bytes:\ngot  %x\nwant %x", got, want)
	}
	if len(f.Bytes()) != HeaderSize+2*AreaSize {
		t.Errorf("encoded size: got %d", len(f.Bytes()))
	}
}

func TestBogusFMaps(t *testing.T) {
	var tests = []struct {
		n    string
		b    []byte
		want string
	}{
		{"no signature", bytes.Repeat([]byte{0x53, 0x11, 0x34, 0x22}, 1024), "cannot find FMAP signature"},
		{"two signatures", bytes.Repeat(ecFlash, 2), "found multiple fmap"},
		{"truncated", ecFlash[:len(ecFlash)-2], "unexpected EOF while parsing fmap"},
	}
	for _, tc := range tests {
		t.Run(tc.n, func(t *testing.T) {
			_, _, err := Parse(tc.b)
			if err == nil {
				t.Fatalf("got nil, want %v", tc.want)
			}
			if err.Error() != tc.want {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLookupAndReadArea(t *testing.T) {
	a, err := NewArea("RW_FWID", 0x10, 0x20, 0)
	if err != nil {
		t.Fatal(err)
	}
	f, err := New("FLASH", 0x100, a)
	if err != nil {
		t.Fatal(err)
	}
	image := bytes.Repeat([]byte{0x53, 0x11, 0x34, 0x22}, 0x40)
	got, err := f.ReadAreaByName(image, "RW_FWID")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, image[0x10:0x30]) {
		t.Errorf("ReadAreaByName: got %x", got)
	}
	if _, err := f.Lookup("nope"); !errors.Is(err, ErrAreaNotFound) {
		t.Errorf("Lookup(nope): got %v, want ErrAreaNotFound", err)
	}
	if _, err := f.ReadAreaByName(image[:0x20], "RW_FWID"); err == nil {
		t.Errorf("ReadAreaByName on a short image: got nil error")
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := NewString(strings.Repeat("x", 32)); err == nil {
		t.Errorf("NewString(32 chars): got nil error")
	}
	a, err := NewArea("BIG", 0x80, 0x100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("FLASH", 0x100, a); err == nil {
		t.Errorf("New with an area past the end: got nil error")
	}
}
