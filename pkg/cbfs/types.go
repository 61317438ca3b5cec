// Copyright 2018-2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cbfs

import (
	"encoding/binary"
	"fmt"

	"github.com/linuxboot/chromeec/pkg/compression"
)

// Endian is the byte order of CBFS file headers and attributes.
var Endian = binary.BigEndian

// FileType is the type field of a CBFS file header.
type FileType uint32

// The types boot firmware cares about when it looks up EC payloads.
// Anything else is carried as an opaque value.
const (
	TypeDeleted2  FileType = 0xffffffff
	TypeDeleted   FileType = 0
	TypeBootBlock FileType = 0x1
	TypeMaster    FileType = 0x2
	TypeStage     FileType = 0x11
	TypeSELF      FileType = 0x20
	TypeRaw       FileType = 0x50
	TypeStruct    FileType = 0x70
)

func (f FileType) String() string {
	switch f {
	case TypeDeleted2:
		return "Deleted2"
	case TypeDeleted:
		return "Deleted"
	case TypeMaster:
		return "cbfs header"
	case TypeBootBlock:
		return "BootBlock"
	case TypeStage:
		return "Stage"
	case TypeSELF:
		return "SELF"
	case TypeRaw:
		return "Raw"
	case TypeStruct:
		return "Struct"
	}
	return fmt.Sprintf("%#x", uint32(f))
}

/** This is a component header - every entry in the CBFS
  will have this header.

  This is how the component is arranged in the ROM:

  --------------   <- 0
  component header
  --------------   <- sizeof(struct component)
  component name
  --------------   <- AttrOffset
  attributes
  --------------   <- SubHeaderOffset
  data
  ...
  --------------   <- SubHeaderOffset + Size
*/

// FileMagic starts every CBFS file record.
const FileMagic = "LARCHIVE"

// FileHeaderSize is the encoded size of FileHeader.
const FileHeaderSize = 24

// Alignment of file records within the CBFS area.
const Alignment = 64

// FileHeader is the fixed part of a file record.
type FileHeader struct {
	Magic           [8]byte
	Size            uint32
	Type            FileType
	AttrOffset      uint32
	SubHeaderOffset uint32
}

// Tag identifies a file attribute.
type Tag uint32

// Attribute tags.
const (
	TagUnused     Tag = 0
	TagUnused2    Tag = 0xffffffff
	TagCompressed Tag = 0x42435a4c
	TagHash       Tag = 0x68736148
	TagPosition   Tag = 0x42435350
	TagAlignment  Tag = 0x42434c41
)

// FileAttr is the common prefix of every attribute.
type FileAttr struct {
	Tag  Tag
	Size uint32 // inclusive of Tag and Size
}

// FileAttrCompression marks the file data as compressed.
type FileAttrCompression struct {
	Tag              Tag
	Size             uint32
	Compression      compression.Algorithm
	DecompressedSize uint32
}

// compressionAttrSize is the encoded size of FileAttrCompression.
const compressionAttrSize = 16

// File is one parsed record.
type File struct {
	FileHeader
	RecordStart uint32
	Name        string
	Attr        []byte
	FData       []byte
}

// Deleted reports whether the record is free space.
func (h *FileHeader) Deleted() bool {
	t := h.Type
	return t == TypeDeleted || t == TypeDeleted2
}
