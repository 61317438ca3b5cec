// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ec implements the host side of the ChromeOS EC host command
// protocol: a typed command API over an injected Transport, event mask
// management across EC firmware generations, and EC RW software sync.
//
// A Channel issues one command at a time and is not safe for concurrent
// use; boot firmware has a single caller.
package ec

import (
	"fmt"

	"github.com/linuxboot/chromeec/pkg/elog"
)

// Debug traces every host command when set, e.g. to log.Printf.
var Debug = func(format string, v ...interface{}) {}

type tristate uint8

const (
	unknown tristate = iota
	yes
	no
)

// Channel is a command channel to one EC.
type Channel struct {
	t      Transport
	clock  Clock
	events elog.Log
	bootID string

	// Memoized for the life of the Channel once definite.
	uhepi tristate
	image Image

	// Scratch buffer for padded flash write bursts.
	burst []byte
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(ch *Channel) { ch.clock = c }
}

// WithEventLog records events to l.
func WithEventLog(l elog.Log) Option {
	return func(ch *Channel) { ch.events = l }
}

// WithBootID sets the boot identifier stamped on logged events.
func WithBootID(id string) Option {
	return func(ch *Channel) { ch.bootID = id }
}

// NewChannel returns a Channel sending commands over t.
func NewChannel(t Transport, opts ...Option) *Channel {
	ch := &Channel{
		t:      t,
		clock:  SystemClock{},
		events: elog.NoopLog{},
	}
	for _, o := range opts {
		o(ch)
	}
	if ch.bootID == "" {
		ch.bootID = elog.NewBootID()
	}
	return ch
}

// Clock returns the channel's clock.
func (c *Channel) Clock() Clock {
	return c.clock
}

// BootID returns the identifier stamped on logged events.
func (c *Channel) BootID() string {
	return c.bootID
}

func (c *Channel) logEvent(t elog.Type, code uint32, msg string) {
	c.events.Add(elog.Event{
		Timestamp: c.clock.Now(),
		BootID:    c.bootID,
		Type:      t,
		Code:      code,
		Message:   msg,
	})
}

// Send issues req once and copies the response into resp. It returns the
// response length.
func (c *Channel) Send(req *Request, resp []byte) (int, error) {
	n, res, err := c.t.Send(req, resp)
	if err != nil {
		Debug("ec: %v v%d dev %d: transport error %v", req.Command, req.Version, req.Device, err)
		return 0, &TransportError{Command: req.Command, Err: err}
	}
	if res != ResSuccess {
		Debug("ec: %v v%d dev %d: %v", req.Command, req.Version, req.Device, res)
		return 0, &ResultError{Command: req.Command, Result: res}
	}
	if n > len(resp) {
		return 0, &TransportError{Command: req.Command, Err: fmt.Errorf("%d response bytes into a %d byte buffer: %w", n, len(resp), ErrBadPacket)}
	}
	Debug("ec: %v v%d dev %d: %d in, %d out", req.Command, req.Version, req.Device, len(req.Data), n)
	return n, nil
}

// Command issues a raw host command to the EC itself.
func (c *Channel) Command(cmd Cmd, version uint8, in, out []byte) (int, error) {
	return c.Send(&Request{Command: cmd, Version: version, Data: in}, out)
}

// call marshals params, issues cmd and decodes the response into resp,
// which must arrive complete. Either may be nil.
func (c *Channel) call(cmd Cmd, version uint8, params, resp interface{}) error {
	var in []byte
	if params != nil {
		in = Marshal(params)
	}
	var out []byte
	if resp != nil {
		out = make([]byte, Size(resp))
	}
	n, err := c.Command(cmd, version, in, out)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	if n < len(out) {
		return fmt.Errorf("%v: got %d bytes, want %d: %w", cmd, n, len(out), ErrShortResponse)
	}
	return Unmarshal(out, resp)
}

// CommandExact issues cmd and requires a response of at least want bytes.
// out is checked for room before anything is sent.
func (c *Channel) CommandExact(cmd Cmd, version uint8, in, out []byte, want int) error {
	if len(out) < want {
		return fmt.Errorf("%v: %d byte buffer for a %d byte response: %w", cmd, len(out), want, ErrBufferTooSmall)
	}
	n, err := c.Command(cmd, version, in, out)
	if err != nil {
		return err
	}
	if n < want {
		return fmt.Errorf("%v: got %d bytes, want %d: %w", cmd, n, want, ErrShortResponse)
	}
	return nil
}
