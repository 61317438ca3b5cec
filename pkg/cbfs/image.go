// Copyright 2018-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cbfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/linuxboot/chromeec/pkg/fmap"
)

// Image is a coreboot image whose COREBOOT FMAP area holds a CBFS.
type Image struct {
	Files []*File
	// Scarf away the fmap info.
	FMAP         *fmap.FMap
	FMAPMetadata *fmap.Metadata
	Area         *fmap.Area
	// And all the data.
	Data []byte
}

// Open reads the image in file n.
func Open(n string) (*Image, error) {
	f, err := os.Open(n)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewImage(f)
}

// NewImage parses the CBFS of an image.
func NewImage(rs io.ReadSeeker) (*Image, error) {
	b, err := io.ReadAll(rs)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %v", err)
	}
	f, m, err := fmap.Parse(b)
	if err != nil {
		return nil, err
	}
	Debug("Fmap %v", f)
	a, err := f.Lookup(fmap.AreaCoreboot)
	if err != nil {
		return nil, fmt.Errorf("No CBFS in fmap")
	}
	if uint64(a.Offset)+uint64(a.Size) > uint64(len(b)) {
		return nil, fmt.Errorf("CBFS area [%#x, %#x) outside of %#x byte image", a.Offset, a.Offset+a.Size, len(b))
	}
	i := &Image{FMAP: f, FMAPMetadata: m, Area: a, Data: b}
	r := io.NewSectionReader(bytes.NewReader(b), int64(a.Offset), int64(a.Size))

	for off := int64(0); off+FileHeaderSize <= int64(a.Size); {
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return nil, err
		}
		file, err := NewFile(r)
		if errors.Is(err, ErrNoMagic) {
			off += 16
			continue
		}
		if err != nil {
			return nil, err
		}
		Debug("Found %v", file)
		i.Files = append(i.Files, file)
		off = int64(align(file.RecordStart+file.SubHeaderOffset+file.Size, 16))
	}
	return i, nil
}

// Find returns the live (not deleted) file named n.
func (i *Image) Find(n string) (*File, bool) {
	for _, f := range i.Files {
		if f.Name == n && !f.Deleted() {
			return f, true
		}
	}
	return nil, false
}

// Lookup returns the decompressed contents of the file named n. A missing
// file yields an error matching fs.ErrNotExist.
func (i *Image) Lookup(n string) ([]byte, error) {
	f, ok := i.Find(n)
	if !ok {
		return nil, &fs.PathError{Op: "lookup", Path: n, Err: fs.ErrNotExist}
	}
	return f.Data()
}

func (i *Image) String() string {
	var s = "FMAP REGION: COREBOOT\n"

	s += fmt.Sprintf("%-32s %-8s   %-24s %-8s   %-4s\n", "Name", "Offset", "Type", "Size", "Comp")
	for _, f := range i.Files {
		s = s + f.String() + "\n"
	}
	return s
}

// WriteFile writes the raw image to a file.
func (i *Image) WriteFile(name string, perm os.FileMode) error {
	return os.WriteFile(name, i.Data, perm)
}
