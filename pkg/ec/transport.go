// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import "time"

// Transport carries one host command to the EC and its response back.
//
// Send fills resp with the response payload and returns its length and
// the EC result code. err reports a failure of the transport itself
// (bus, framing, checksum); it is nil whenever res is meaningful.
type Transport interface {
	Send(req *Request, resp []byte) (n int, res Result, err error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(req *Request, resp []byte) (int, Result, error)

// Send implements Transport.
func (f TransportFunc) Send(req *Request, resp []byte) (int, Result, error) {
	return f(req, resp)
}

// Clock is the timing boundary: a monotonic time source and a blocking
// delay.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock uses the time package.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep implements Clock.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// FileStore looks up files shipped with the boot firmware. A missing
// file must yield an error matching fs.ErrNotExist.
type FileStore interface {
	Lookup(name string) ([]byte, error)
}
