// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ecinit runs the boot time EC setup: keyboard recovery
// detection, event logging, SCI/SMI/wake mask programming, EC RW
// software sync and the jump into the synced RW image.
package ecinit

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/chromeec/pkg/config"
	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/log"
)

// Options are the per-boot inputs of Run.
type Options struct {
	// Resume is set when waking from S3.
	Resume bool
	// Halt is called after the EC was told to reboot into RO. Firmware
	// stops here and waits for the reset; nil returns to the caller.
	Halt func()
}

// Result describes what Run did.
type Result struct {
	// Recovery is the keyboard recovery event found, if any.
	Recovery     ec.HostEvent
	Events       uint64
	DeviceEvents uint32
	Update       ec.UpdateOutcome
	// JumpedToRW is set when the EC was moved from RO into its RW image.
	JumpedToRW bool
	// AutoFan is set when automatic fan control was handed back to the EC.
	AutoFan bool
}

// Run performs EC init for one boot. Failures of individual steps are
// collected and returned together; the steps after them still run. Only
// a reboot into RO ends Run early, returning ec.ErrRebootToRO.
func Run(ch *ec.Channel, store ec.FileStore, b *config.Board, opts Options) (*Result, error) {
	var (
		result Result
		errs   *multierror.Error
	)
	fail := func(step string, err error) {
		if err != nil {
			log.Errorf("EC init: %s: %v", step, err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", step, err))
		}
	}
	ev := b.Events

	if !opts.Resume {
		fail("hello", ch.Hello())
		if v, err := ch.Version(); err != nil {
			fail("reading version", err)
		} else {
			log.Infof("EC init: RO %q, RW %q, running %v", v.RO, v.RW, v.Current)
		}
	}

	if pending, err := ch.GetEventsB(); err != nil {
		fail("reading B events", err)
	} else if e, ok := ec.RecoveryEvent(pending); ok {
		ch.LogRecovery(pending)
		result.Recovery = e
	}

	if opts.Resume {
		logged, err := ch.LogEvents(uint64(ev.Log | ev.S3Wake))
		fail("logging events", err)
		result.Events = logged
		dev, err := ch.LogDeviceEvents(uint32(ev.S3DeviceEvents))
		fail("logging device events", err)
		result.DeviceEvents = dev
		fail("disabling SMI events", ch.SetSMIMask(0))
		fail("restoring SCI events", ch.SetSCIMask(uint64(ev.SCI)))
	} else {
		fail("setting SMI events", ch.SetSMIMask(uint64(ev.SMI)))
		logged, err := ch.LogEvents(uint64(ev.Log | ev.S5Wake))
		fail("logging events", err)
		result.Events = logged
		if ch.UHEPISupported() {
			fail("setting lazy wake masks", ch.SetLazyWakeMasks(uint64(ev.S5Wake), uint64(ev.S3Wake), uint64(ev.S0ixWake)))
		}
	}
	fail("clearing wake mask", ch.SetWakeMask(0))

	if b.SWSync.Disable {
		log.Infof("EC init: software sync disabled")
		result.Update = ec.UpdateSkipped
	} else {
		outcome, err := ch.UpdateRW(store, b.UpdateOptions(opts.Resume))
		result.Update = outcome
		if errors.Is(err, ec.ErrRebootToRO) {
			if opts.Halt != nil {
				opts.Halt()
			}
			return &result, err
		}
		fail("software sync", err)
		if err == nil && (outcome == ec.UpdateUpToDate || outcome == ec.UpdateUpdated) && ch.CurrentImage() != ec.ImageRW {
			log.Infof("EC init: EC RW is %v, jumping to it", outcome)
			err := ch.JumpToRW()
			fail("jumping to RW", err)
			result.JumpedToRW = err == nil
		}
	}

	if !opts.Resume {
		fan, err := ch.CheckFeature(ec.FeaturePWMFan)
		fail("reading features", err)
		if fan {
			err := ch.ThermalAutoFanCtrl()
			fail("enabling automatic fan control", err)
			result.AutoFan = err == nil
		}
	}
	return &result, errs.ErrorOrNil()
}
