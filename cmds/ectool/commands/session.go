// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/linuxboot/chromeec/pkg/cbfs"
	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ec/ecsim"
	"github.com/linuxboot/chromeec/pkg/elog"
	"github.com/linuxboot/chromeec/pkg/log"
)

// Options are the options shared by all verbs.
type Options struct {
	Transport string `short:"t" long:"transport" default:"dev" description:"how to reach the EC: dev, lpc or sim"`
	Device    string `long:"device" default:"/dev/cros_ec" description:"EC character device for the dev transport"`
	Debug     bool   `short:"d" long:"debug" description:"enable debug prints"`
	EventLog  string `long:"elog" description:"append EC events to this log file"`

	SimUHEPI bool `long:"sim-uhepi" description:"simulated EC has unified host event masks"`
	SimRW    bool `long:"sim-rw" description:"simulated EC runs its RW image"`
}

// Global holds the parsed shared options.
var Global Options

// Stdout is where verbs print.
var Stdout io.Writer = os.Stdout

// Opener connects a transport.
type Opener func(o *Options) (ec.Transport, io.Closer, error)

var transports = map[string]Opener{
	"sim": openSim,
}

// RegisterTransport makes a transport available under name.
func RegisterTransport(name string, o Opener) {
	transports[name] = o
}

// Transports lists the available transports.
func Transports() []string {
	var names []string
	for n := range transports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openSim(o *Options) (ec.Transport, io.Closer, error) {
	s := ecsim.New()
	s.UHEPI = o.SimUHEPI
	if o.SimRW {
		s.Image = ec.ImageRW
	}
	s.MaxRequestPacket = 0x200
	s.MaxResponsePacket = 0x200
	s.Features = []ec.Feature{ec.FeaturePWMFan, ec.FeatureUSBPD}
	s.Charger = ec.USBPDPowerInfo{
		Type: ec.ChargerPD,
		Meas: ec.USBChargeMeasures{VoltageMax: 20000, VoltageNow: 20000, CurrentMax: 3000, CurrentLim: 3000},
	}
	s.AltModes[0] = []uint16{ec.SVIDDisplayPort}
	// A 256 byte EEPROM.
	s.I2C[0x50] = make([]byte, 256)
	return s, nopCloser{}, nil
}

type session struct {
	ch     *ec.Channel
	closer io.Closer
	events *elog.FileLog
}

var current *session

// Setup applies the shared options that do not need the EC.
func Setup() {
	if Global.Debug {
		log.Verbose = true
		ec.Debug = log.Debugf
		cbfs.Debug = log.Debugf
	}
}

// Channel returns the channel to the EC, connecting on first use. Later
// calls, such as those of shell verbs, share the connection.
func Channel() (*ec.Channel, error) {
	if current != nil {
		return current.ch, nil
	}
	open, ok := transports[Global.Transport]
	if !ok {
		return nil, ErrArgs{Err: fmt.Errorf("unknown transport %q, have %v", Global.Transport, Transports())}
	}
	t, closer, err := open(&Global)
	if err != nil {
		return nil, err
	}
	s := &session{closer: closer}
	opts := []ec.Option{}
	if _, sim := t.(*ecsim.EC); sim {
		opts = append(opts, ec.WithClock(ecsim.NewClock()))
	}
	if Global.EventLog != "" {
		if s.events, err = elog.NewFileLog(Global.EventLog); err != nil {
			closer.Close()
			return nil, err
		}
		opts = append(opts, ec.WithEventLog(s.events))
	}
	s.ch = ec.NewChannel(t, opts...)
	current = s
	return s.ch, nil
}

// Close drops the connection to the EC.
func Close() error {
	if current == nil {
		return nil
	}
	s := current
	current = nil
	if s.events != nil {
		s.events.Close()
	}
	return s.closer.Close()
}
