// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements the codecs CBFS files may be stored with.
package compression

import "fmt"

// Compressor defines a single compression scheme (such as LZMA).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// Algorithm is the compression field of a CBFS compression attribute.
type Algorithm uint32

// Known algorithms, numbered as coreboot numbers them.
const (
	None Algorithm = iota
	LZMA
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZMA:
		return "lzma"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("unknown(%d)", uint32(a))
}

// ForAlgorithm returns the Compressor for a, or nil for None.
func ForAlgorithm(a Algorithm) (Compressor, error) {
	switch a {
	case None:
		return nil, nil
	case LZMA:
		return &LZMAAlone{}, nil
	case LZ4:
		return &LZ4Compressor{}, nil
	}
	return nil, fmt.Errorf("unsupported compression %v", a)
}

// Decode decodes data compressed with a. None returns data unchanged.
func Decode(a Algorithm, data []byte) ([]byte, error) {
	c, err := ForAlgorithm(a)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return data, nil
	}
	out, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", c.Name(), err)
	}
	return out, nil
}
