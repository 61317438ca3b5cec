// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads the board description that drives EC init: which
// host events to log, route and wake on, and how to run software sync.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/linuxboot/chromeec/pkg/ec"
)

// Mask is a host event mask. In YAML it is either a number or a list of
// event names such as lid-open.
type Mask uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mask) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var v uint64
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: event mask %q: %w", n.Line, n.Value, err)
		}
		*m = Mask(v)
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return fmt.Errorf("line %d: event mask: %w", n.Line, err)
		}
		var v uint64
		for _, name := range names {
			e, err := ec.ParseHostEvent(strings.TrimSpace(name))
			if err != nil {
				return fmt.Errorf("line %d: %w", n.Line, err)
			}
			v |= e.Mask()
		}
		*m = Mask(v)
	default:
		return fmt.Errorf("line %d: event mask must be a number or a list of events", n.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler, writing event names.
func (m Mask) MarshalYAML() (interface{}, error) {
	var names []string
	for _, e := range ec.HostEvents(uint64(m)) {
		names = append(names, e.String())
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// DeviceMask is a device event mask, a number or a list of device event
// names.
type DeviceMask uint32

var deviceEvents = []ec.DeviceEvent{ec.DeviceEventTrackpad, ec.DeviceEventDSP, ec.DeviceEventWiFi}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *DeviceMask) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var v uint32
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: device event mask %q: %w", n.Line, n.Value, err)
		}
		*m = DeviceMask(v)
		return nil
	}
	var names []string
	if err := n.Decode(&names); err != nil {
		return fmt.Errorf("line %d: device event mask: %w", n.Line, err)
	}
	var v uint32
next:
	for _, name := range names {
		for _, e := range deviceEvents {
			if e.String() == name {
				v |= 1 << e
				continue next
			}
		}
		return fmt.Errorf("line %d: unknown device event %q", n.Line, name)
	}
	*m = DeviceMask(v)
	return nil
}

// Events selects the host events EC init handles.
type Events struct {
	// Log is always logged at boot.
	Log Mask `yaml:"log"`
	SCI Mask `yaml:"sci"`
	SMI Mask `yaml:"smi"`

	S0ixWake Mask `yaml:"s0ix-wake"`
	S3Wake   Mask `yaml:"s3-wake"`
	S5Wake   Mask `yaml:"s5-wake"`

	S3DeviceEvents DeviceMask `yaml:"s3-device-events"`
}

// SWSync configures EC RW software sync.
type SWSync struct {
	// Disable skips software sync altogether.
	Disable bool   `yaml:"disable"`
	Image   string `yaml:"image"`
	Hash    string `yaml:"hash"`
}

// Board is a board description.
type Board struct {
	Name   string `yaml:"name"`
	Events Events `yaml:"events"`
	SWSync SWSync `yaml:"swsync"`
	// EventLog is the path of the event log; empty disables it.
	EventLog string `yaml:"event-log"`
}

// Default returns a board with no events and software sync of the
// default CBFS files.
func Default() *Board {
	return &Board{
		SWSync: SWSync{
			Image: ec.DefaultImageName,
			Hash:  ec.DefaultHashName,
		},
	}
}

// Parse reads a board description. Unset fields keep Default values.
func Parse(data []byte) (*Board, error) {
	b := Default()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads the board description at path.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Validate reports every inconsistency in b.
func (b *Board) Validate() error {
	var result *multierror.Error
	if !b.SWSync.Disable {
		if b.SWSync.Image == "" {
			result = multierror.Append(result, fmt.Errorf("swsync: image name is empty"))
		}
		if b.SWSync.Hash == "" {
			result = multierror.Append(result, fmt.Errorf("swsync: hash name is empty"))
		}
		if b.SWSync.Image != "" && b.SWSync.Image == b.SWSync.Hash {
			result = multierror.Append(result, fmt.Errorf("swsync: image and hash are both %q", b.SWSync.Image))
		}
	}
	if both := b.Events.SCI & b.Events.SMI; both != 0 {
		result = multierror.Append(result, fmt.Errorf("events routed to both SCI and SMI: %s", ec.FormatEvents(uint64(both))))
	}
	return result.ErrorOrNil()
}

// UpdateOptions returns the software sync options for a boot.
func (b *Board) UpdateOptions(resume bool) ec.UpdateOptions {
	return ec.UpdateOptions{
		Resume:    resume,
		ImageName: b.SWSync.Image,
		HashName:  b.SWSync.Hash,
	}
}
