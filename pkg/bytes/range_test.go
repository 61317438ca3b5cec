// Copyright 2019 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytes

import (
	"testing"
)

func TestRangeIntersect(t *testing.T) {
	var tests = []struct {
		n    string
		a, b Range
		want bool
	}{
		{"disjoint", Range{0, 4}, Range{4, 4}, false},
		{"overlap", Range{0, 5}, Range{4, 4}, true},
		{"inside", Range{0, 16}, Range{4, 4}, true},
		{"empty", Range{0, 16}, Range{4, 0}, false},
		{"before", Range{8, 8}, Range{0, 8}, false},
	}
	for _, tc := range tests {
		t.Run(tc.n, func(t *testing.T) {
			if got := tc.a.Intersect(tc.b); got != tc.want {
				t.Errorf("%v.Intersect(%v): got %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Intersect(tc.a); got != tc.want {
				t.Errorf("%v.Intersect(%v): got %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	outer := Range{Offset: 0x1000, Length: 0x1000}
	var tests = []struct {
		n     string
		inner Range
		want  bool
	}{
		{"whole", Range{0x1000, 0x1000}, true},
		{"head", Range{0x1000, 0x10}, true},
		{"tail", Range{0x1ff0, 0x10}, true},
		{"past end", Range{0x1ff0, 0x11}, false},
		{"before", Range{0xfff, 0x10}, false},
		{"empty at end", Range{0x2000, 0}, true},
		{"overflow", Range{^uint64(0), 2}, false},
	}
	for _, tc := range tests {
		t.Run(tc.n, func(t *testing.T) {
			if got := outer.Contains(tc.inner); got != tc.want {
				t.Errorf("Contains(%v): got %v, want %v", tc.inner, got, tc.want)
			}
		})
	}
}

func TestRangesIntersect(t *testing.T) {
	s := Ranges{{Offset: 0x100, Length: 0x100}, {Offset: 0, Length: 0x10}}
	s.Sort()
	if s[0].Offset != 0 {
		t.Fatalf("Sort: got %v", s)
	}
	r, ok := s.Intersect(Range{Offset: 0x1f0, Length: 0x20})
	if !ok || r.Offset != 0x100 {
		t.Errorf("Intersect: got %v %v, want the 0x100 range", r, ok)
	}
	if _, ok := s.Intersect(Range{Offset: 0x10, Length: 0xf0}); ok {
		t.Errorf("Intersect: got a hit for a gap")
	}
}

func TestIsFilled(t *testing.T) {
	if !IsZeroFilled(nil) {
		t.Errorf("IsZeroFilled(nil): got false")
	}
	b := make([]byte, 64)
	Fill(b, Erased)
	if !IsErased(b) {
		t.Errorf("IsErased after Fill: got false")
	}
	b[63] = 0
	if IsErased(b) {
		t.Errorf("IsErased with a programmed byte: got true")
	}
	if IsZeroFilled(b) {
		t.Errorf("IsZeroFilled: got true")
	}
}
