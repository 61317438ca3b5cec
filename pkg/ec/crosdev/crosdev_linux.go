// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crosdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Open opens the cros_ec character device at path.
func Open(path string) (*Transport, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("can't open EC device: %w", err)
	}
	t := NewTransport(func(buf []byte) (int, error) {
		r, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), IocXCmdV2, uintptr(unsafe.Pointer(&buf[0])))
		if errno != 0 {
			return 0, errno
		}
		return int(r), nil
	})
	t.close = f.Close
	return t, nil
}
