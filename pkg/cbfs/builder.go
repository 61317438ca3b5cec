// Copyright 2018-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cbfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xaionaro-go/bytesextra"

	ebytes "github.com/linuxboot/chromeec/pkg/bytes"
	"github.com/linuxboot/chromeec/pkg/compression"
	"github.com/linuxboot/chromeec/pkg/fmap"
)

// Builder lays out a fresh image holding an FMAP and a CBFS area.
type Builder struct {
	size     uint32
	cbfsOff  uint32
	cbfsSize uint32
	files    []pending
}

type pending struct {
	name string
	typ  FileType
	data []byte
	comp compression.Algorithm
}

// NewBuilder prepares an image of size bytes; the first 4 KiB hold the
// FMAP and the rest is the COREBOOT area.
func NewBuilder(size uint32) (*Builder, error) {
	const fmapSpace = 0x1000
	if size <= fmapSpace {
		return nil, fmt.Errorf("image size %#x too small", size)
	}
	return &Builder{size: size, cbfsOff: fmapSpace, cbfsSize: size - fmapSpace}, nil
}

// Add queues a file; it is compressed with comp when the image is built.
func (b *Builder) Add(name string, typ FileType, data []byte, comp compression.Algorithm) {
	b.files = append(b.files, pending{name: name, typ: typ, data: data, comp: comp})
}

func (p *pending) record() ([]byte, error) {
	payload := p.data
	var attr []byte
	if p.comp != compression.None {
		c, err := compression.ForAlgorithm(p.comp)
		if err != nil {
			return nil, err
		}
		if payload, err = c.Encode(p.data); err != nil {
			return nil, fmt.Errorf("%q: %w", p.name, err)
		}
		var a bytes.Buffer
		if err := Write(&a, FileAttrCompression{
			Tag:              TagCompressed,
			Size:             compressionAttrSize,
			Compression:      p.comp,
			DecompressedSize: uint32(len(p.data)),
		}); err != nil {
			return nil, err
		}
		attr = a.Bytes()
	}
	nameLen := align(uint32(len(p.name))+1, 16)
	h := FileHeader{
		Size: uint32(len(payload)),
		Type: p.typ,
	}
	copy(h.Magic[:], FileMagic)
	h.SubHeaderOffset = FileHeaderSize + nameLen
	if attr != nil {
		h.AttrOffset = h.SubHeaderOffset
		h.SubHeaderOffset += uint32(len(attr))
	}
	var rec bytes.Buffer
	if err := Write(&rec, h); err != nil {
		return nil, err
	}
	name := make([]byte, nameLen)
	copy(name, p.name)
	rec.Write(name)
	rec.Write(attr)
	rec.Write(payload)
	return rec.Bytes(), nil
}

// Bytes builds the image. Unused space is left erased (0xff).
func (b *Builder) Bytes() ([]byte, error) {
	cb, err := fmap.NewArea(fmap.AreaCoreboot, b.cbfsOff, b.cbfsSize, 0)
	if err != nil {
		return nil, err
	}
	fa, err := fmap.NewArea("FMAP", 0, b.cbfsOff, fmap.FmapAreaStatic)
	if err != nil {
		return nil, err
	}
	m, err := fmap.New("FLASH", b.size, fa, cb)
	if err != nil {
		return nil, err
	}
	img := make([]byte, b.size)
	ebytes.Fill(img, ebytes.Erased)
	w := bytesextra.NewReadWriteSeeker(img)
	if err := fmap.Write(w, m, &fmap.Metadata{Start: 0}); err != nil {
		return nil, err
	}

	off := b.cbfsOff
	for _, p := range b.files {
		rec, err := p.record()
		if err != nil {
			return nil, err
		}
		if uint64(off)+uint64(len(rec)) > uint64(b.size) {
			return nil, fmt.Errorf("%q: %#x byte record does not fit at %#x", p.name, len(rec), off)
		}
		if _, err := w.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := w.Write(rec); err != nil {
			return nil, err
		}
		Debug("Placed %q at %#x (%#x bytes)", p.name, off, len(rec))
		off = align(off+uint32(len(rec)), Alignment)
	}
	return img, nil
}
