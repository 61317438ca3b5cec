// Copyright 2018-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cbfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/linuxboot/chromeec/pkg/compression"
)

// ErrNoMagic is returned by NewFile when no record starts at the offset.
var ErrNoMagic = errors.New("CBFS file magic doesn't match")

// NewFile reads in the CBFS file at current offset
// On success it seeks to the end of the file.
// On error the current offset withing the ReadSeeker is undefined.
func NewFile(r io.ReadSeeker) (*File, error) {
	var f File
	off, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	f.RecordStart = uint32(off)

	if err := Read(r, &f.FileHeader); err != nil {
		return nil, err
	}
	if string(f.Magic[:]) != FileMagic {
		return nil, ErrNoMagic
	}
	Debug("It is %v type %v at %#x", f.Size, f.Type, f.RecordStart)

	end := f.SubHeaderOffset
	if f.AttrOffset != 0 {
		end = f.AttrOffset
	}
	if end < FileHeaderSize || f.SubHeaderOffset < end {
		return nil, fmt.Errorf("record at %#x: bad offsets attr %#x data %#x", f.RecordStart, f.AttrOffset, f.SubHeaderOffset)
	}
	if err := readName(r, &f, end-FileHeaderSize); err != nil {
		return nil, err
	}
	if err := readAttributes(r, &f); err != nil {
		return nil, err
	}
	if err := readData(r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func readName(r io.Reader, f *File, size uint32) error {
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return fmt.Errorf("record at %#x: name: %w", f.RecordStart, err)
	}
	// discard trailing NULLs
	z := bytes.SplitN(b, []byte{0}, 2)
	f.Name = cleanString(string(z[0]))
	Debug("ReadName gets '%s'", f.Name)
	return nil
}

func readAttributes(r io.Reader, f *File) error {
	if f.AttrOffset == 0 {
		return nil
	}
	b := make([]byte, f.SubHeaderOffset-f.AttrOffset)
	if _, err := io.ReadFull(r, b); err != nil {
		return fmt.Errorf("record %q: attributes: %w", f.Name, err)
	}
	f.Attr = b
	return nil
}

func readData(r io.ReadSeeker, f *File) error {
	if _, err := r.Seek(int64(f.RecordStart+f.SubHeaderOffset), io.SeekStart); err != nil {
		return err
	}
	b := make([]byte, f.Size)
	if _, err := io.ReadFull(r, b); err != nil {
		return fmt.Errorf("record %q: %#x data bytes: %w", f.Name, f.Size, err)
	}
	f.FData = b
	return nil
}

// FindAttribute returns the raw attribute with the given tag, including
// its tag and size fields.
func (f *File) FindAttribute(t Tag) ([]byte, bool) {
	for b := f.Attr; len(b) >= 8; {
		var a FileAttr
		if err := Read(bytes.NewReader(b), &a); err != nil {
			return nil, false
		}
		if a.Tag == TagUnused || a.Tag == TagUnused2 || a.Size < 8 || int(a.Size) > len(b) {
			return nil, false
		}
		if a.Tag == t {
			return b[:a.Size], true
		}
		b = b[a.Size:]
	}
	return nil, false
}

// Compression returns the compression attribute of the file, if any.
func (f *File) Compression() (*FileAttrCompression, error) {
	b, ok := f.FindAttribute(TagCompressed)
	if !ok {
		return &FileAttrCompression{Compression: compression.None, DecompressedSize: f.Size}, nil
	}
	var c FileAttrCompression
	if err := Read(bytes.NewReader(b), &c); err != nil {
		return nil, fmt.Errorf("record %q: compression attribute: %w", f.Name, err)
	}
	return &c, nil
}

// Data returns the decompressed contents of the file.
func (f *File) Data() ([]byte, error) {
	c, err := f.Compression()
	if err != nil {
		return nil, err
	}
	d, err := compression.Decode(c.Compression, f.FData)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", f.Name, err)
	}
	if uint32(len(d)) != c.DecompressedSize {
		return nil, fmt.Errorf("record %q: decompressed to %#x bytes, attribute says %#x", f.Name, len(d), c.DecompressedSize)
	}
	return d, nil
}

func (f *File) String() string {
	c, err := f.Compression()
	comp := "?"
	if err == nil {
		comp = c.Compression.String()
	}
	return recString(f.Name, f.RecordStart, f.Type.String(), f.Size, comp)
}
