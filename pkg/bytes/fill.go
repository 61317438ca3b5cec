// Copyright 2019 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytes

// Erased is the value of a NOR flash byte after erase.
const Erased = 0xff

// IsFilled returns true if every byte of b equals v.
func IsFilled(b []byte, v byte) bool {
	for _, x := range b {
		if x != v {
			return false
		}
	}
	return true
}

// IsZeroFilled returns true if b consists of zeros only.
func IsZeroFilled(b []byte) bool {
	return IsFilled(b, 0)
}

// IsErased returns true if b looks like freshly erased flash.
func IsErased(b []byte) bool {
	return IsFilled(b, Erased)
}

// Fill sets every byte of b to v.
func Fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
