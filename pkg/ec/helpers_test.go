// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec_test

import (
	"crypto/sha256"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ec/ecsim"
	"github.com/linuxboot/chromeec/pkg/elog"
)

// mockTransport answers with whatever payload the expectation returns.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(req *ec.Request, resp []byte) (int, ec.Result, error) {
	args := m.Called(req.Command, req.Version, append([]byte(nil), req.Data...))
	out, _ := args.Get(0).([]byte)
	n := copy(resp, out)
	return n, args.Get(1).(ec.Result), args.Error(2)
}

// sends returns the request payloads of the calls made for cmd.
func (m *mockTransport) sends(cmd ec.Cmd) [][]byte {
	var r [][]byte
	for _, c := range m.Calls {
		if c.Arguments.Get(0).(ec.Cmd) == cmd {
			r = append(r, c.Arguments.Get(2).([]byte))
		}
	}
	return r
}

type memStore map[string][]byte

func (m memStore) Lookup(name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, &fs.PathError{Op: "lookup", Path: name, Err: fs.ErrNotExist}
	}
	return b, nil
}

type simEnv struct {
	sim    *ecsim.EC
	clock  *ecsim.Clock
	events *elog.MemoryLog
	ch     *ec.Channel
}

func newSim(t *testing.T) *simEnv {
	t.Helper()
	e := &simEnv{
		sim:    ecsim.New(),
		clock:  ecsim.NewClock(),
		events: &elog.MemoryLog{},
	}
	e.ch = ec.NewChannel(e.sim, ec.WithClock(e.clock), ec.WithEventLog(e.events), ec.WithBootID("test-boot"))
	return e
}

// testImage returns an RW image that does not end in erased bytes.
func testImage(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)*7 + seed
	}
	b[n-1] = 0x5a
	return b
}

func sum(b []byte) []byte {
	s := sha256.Sum256(b)
	return s[:]
}

func hashCalls(s *ecsim.EC, op uint8) int {
	n := 0
	for _, c := range s.CallsOf(ec.CmdVbootHash) {
		if len(c.Data) > 0 && c.Data[0] == op {
			n++
		}
	}
	return n
}
