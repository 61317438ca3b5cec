// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"math/rand"
	"testing"
)

func ecImage() []byte {
	// Half noise, half erased flash: roughly what an EC RW image looks like.
	b := make([]byte, 0x8000)
	rand.New(rand.NewSource(1)).Read(b[:0x4000])
	for i := 0x4000; i < len(b); i++ {
		b[i] = 0xff
	}
	return b
}

func TestEncodeDecode(t *testing.T) {
	for _, a := range []Algorithm{LZMA, LZ4} {
		t.Run(a.String(), func(t *testing.T) {
			c, err := ForAlgorithm(a)
			if err != nil {
				t.Fatal(err)
			}
			want := ecImage()
			encoded, err := c.Encode(want)
			if err != nil {
				t.Fatal(err)
			}
			if len(encoded) >= len(want) {
				t.Errorf("%s did not compress: %d >= %d", c.Name(), len(encoded), len(want))
			}
			got, err := Decode(a, encoded)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("decompressed image did not match, (got: %d bytes, want: %d bytes)", len(got), len(want))
			}
		})
	}
}

func TestDecodeNone(t *testing.T) {
	in := []byte("ecrw")
	got, err := Decode(None, in)
	if err != nil || !bytes.Equal(got, in) {
		t.Errorf("Decode(None): got %q, %v", got, err)
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if _, err := Decode(Algorithm(7), nil); err == nil {
		t.Errorf("Decode(7): got nil error")
	}
	if got := Algorithm(7).String(); got != "unknown(7)" {
		t.Errorf("String: got %q", got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(LZ4, []byte("not an lz4 frame")); err == nil {
		t.Errorf("Decode(LZ4, garbage): got nil error")
	}
}
