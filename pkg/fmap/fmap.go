// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fmap parses and builds flash maps.
//
// Both coreboot images (where the COREBOOT area holds CBFS) and EC images
// (EC_RO / EC_RW halves) describe their layout with an FMAP.
package fmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	ebytes "github.com/linuxboot/chromeec/pkg/bytes"
)

// Signature of the fmap structure.
var Signature = []byte("__FMAP__")

// Flags which can be applied to Area.Flags.
const (
	FmapAreaStatic = 1 << iota
	FmapAreaCompressed
	FmapAreaReadOnly
)

// Well-known area names.
const (
	AreaCoreboot = "COREBOOT"
	AreaECRO     = "EC_RO"
	AreaECRW     = "EC_RW"
	AreaROFRID   = "RO_FRID"
	AreaRWFWID   = "RW_FWID"
)

// HeaderSize and AreaSize are the encoded sizes of Header and Area.
const (
	HeaderSize = 8 + 1 + 1 + 8 + 4 + 32 + 2
	AreaSize   = 4 + 4 + 32 + 2
)

// String wraps around byte array to give us more control over how strings are
// serialized.
type String struct {
	Value [32]uint8
}

func (s *String) String() string {
	return strings.TrimRight(string(s.Value[:]), "\x00")
}

// NewString makes a NUL padded String out of s.
func NewString(s string) (String, error) {
	var r String
	if len(s) >= len(r.Value) {
		return r, fmt.Errorf("String %#v is longer than 31 bytes", s)
	}
	copy(r.Value[:], s)
	return r, nil
}

// FMap structure serializable using encoding.Binary.
type FMap struct {
	Header
	Areas []Area
}

// Header describes the flash part.
type Header struct {
	Signature [8]uint8
	VerMajor  uint8
	VerMinor  uint8
	Base      uint64
	Size      uint32
	Name      String
	NAreas    uint16
}

// Area describes each area.
type Area struct {
	Offset uint32
	Size   uint32
	Name   String
	Flags  uint16
}

// Range returns the bytes covered by the area.
func (a *Area) Range() ebytes.Range {
	return ebytes.Range{Offset: uint64(a.Offset), Length: uint64(a.Size)}
}

// Metadata contains additional data not part of the FMap.
type Metadata struct {
	Start uint64
}

func headerValid(h *Header) bool {
	if h.VerMajor != 1 {
		return false
	}
	// Check if some sensible value is used for the full flash size
	if h.Size == 0 {
		return false
	}

	// Name is specified to be null terminated single-word string without spaces
	return bytes.Contains(h.Name.Value[:], []byte("\x00"))
}

// FlagNames returns human readable representation of the flags.
func FlagNames(flags uint16) string {
	names := []string{}
	m := []struct {
		val  uint16
		name string
	}{
		{FmapAreaStatic, "STATIC"},
		{FmapAreaCompressed, "COMPRESSED"},
		{FmapAreaReadOnly, "READ_ONLY"},
	}
	for _, v := range m {
		if v.val&flags != 0 {
			names = append(names, v.name)
			flags -= v.val
		}
	}
	// Write a hex value for unknown flags.
	if flags != 0 || len(names) == 0 {
		names = append(names, fmt.Sprintf("%#x", flags))
	}
	return strings.Join(names, "|")
}

var (
	errEOF           = errors.New("unexpected EOF while parsing fmap")
	errSigNotFound   = errors.New("cannot find FMAP signature")
	errMultipleFound = errors.New("found multiple fmap")

	// ErrAreaNotFound is returned by Lookup.
	ErrAreaNotFound = errors.New("FMAP area not found")
)

func readField(r io.Reader, data interface{}) error {
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return errEOF
	}
	return nil
}

// Read an FMap into the data structure.
func Read(f io.Reader) (*FMap, *Metadata, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, err
	}
	return Parse(data)
}

// Parse finds the single valid FMAP in data.
func Parse(data []byte) (*FMap, *Metadata, error) {
	// Loop over __FMAP__ occurrences until a valid header is found
	start := 0
	validFmaps := 0
	var fmap FMap
	var fmapMetadata Metadata
	for start < len(data) {
		next := bytes.Index(data[start:], Signature)
		if next == -1 {
			break
		}
		start += next

		r := bytes.NewReader(data[start:])
		var testFmap FMap
		if err := readField(r, &testFmap.Header); err != nil {
			return nil, nil, err
		}
		if !headerValid(&testFmap.Header) {
			start += len(Signature)
			continue
		}
		fmap = testFmap
		validFmaps++

		fmap.Areas = make([]Area, fmap.NAreas)
		if err := readField(r, &fmap.Areas); err != nil {
			return nil, nil, err
		}
		fmapMetadata = Metadata{
			Start: uint64(start),
		}
		start += len(Signature)
	}
	switch {
	case validFmaps >= 2:
		return nil, nil, errMultipleFound
	case validFmaps == 1:
		return &fmap, &fmapMetadata, nil
	}
	return nil, nil, errSigNotFound
}

// New builds an FMap describing a flash part of the given size.
func New(name string, size uint32, areas ...Area) (*FMap, error) {
	n, err := NewString(name)
	if err != nil {
		return nil, err
	}
	f := &FMap{
		Header: Header{VerMajor: 1, VerMinor: 1, Size: size, Name: n, NAreas: uint16(len(areas))},
		Areas:  areas,
	}
	copy(f.Signature[:], Signature)
	for _, a := range areas {
		if uint64(a.Offset)+uint64(a.Size) > uint64(size) {
			return nil, fmt.Errorf("area %q [%#x, %#x) is outside the %#x byte flash", a.Name.String(), a.Offset, a.Offset+a.Size, size)
		}
	}
	return f, nil
}

// NewArea is a convenience constructor for Area.
func NewArea(name string, offset, size uint32, flags uint16) (Area, error) {
	n, err := NewString(name)
	if err != nil {
		return Area{}, err
	}
	return Area{Offset: offset, Size: size, Name: n, Flags: flags}, nil
}

// Bytes encodes the FMap.
func (f *FMap) Bytes() []byte {
	var b bytes.Buffer
	// bytes.Buffer writes never fail.
	_ = binary.Write(&b, binary.LittleEndian, f.Header)
	_ = binary.Write(&b, binary.LittleEndian, f.Areas)
	return b.Bytes()
}

// Write overwrites the fmap in the flash file.
func Write(f io.WriteSeeker, fmap *FMap, m *Metadata) error {
	if _, err := f.Seek(int64(m.Start), io.SeekStart); err != nil {
		return err
	}
	_, err := f.Write(fmap.Bytes())
	return err
}

// IndexOfArea returns the index of an area in the fmap given its name. If no
// names match, -1 is returned.
func (f *FMap) IndexOfArea(name string) int {
	for i := 0; i < len(f.Areas); i++ {
		if f.Areas[i].Name.String() == name {
			return i
		}
	}
	return -1
}

// Lookup returns the area with the given name.
func (f *FMap) Lookup(name string) (*Area, error) {
	i := f.IndexOfArea(name)
	if i == -1 {
		return nil, fmt.Errorf("%q: %w", name, ErrAreaNotFound)
	}
	return &f.Areas[i], nil
}

// ReadAreaByName returns a copy of the named area of image.
func (f *FMap) ReadAreaByName(image []byte, name string) ([]byte, error) {
	a, err := f.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !(ebytes.Range{Length: uint64(len(image))}).Contains(a.Range()) {
		return nil, fmt.Errorf("area %q [%#x, %#x) is outside the %#x byte image", name, a.Offset, a.Offset+a.Size, len(image))
	}
	return append([]byte(nil), image[a.Offset:a.Offset+a.Size]...), nil
}
