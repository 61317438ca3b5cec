// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/chromeec/pkg/log"
)

// MaskKind selects one of the EC's host event masks. The values are the
// mask_type field of the unified HOST_EVENT command.
type MaskKind uint8

// Mask kinds.
const (
	MaskMain MaskKind = iota
	MaskB
	MaskSCI
	MaskSMI
	MaskAlwaysReport
	MaskActiveWake
	MaskLazyWakeS0ix
	MaskLazyWakeS3
	MaskLazyWakeS5
)

// MaskKinds lists every mask kind.
var MaskKinds = []MaskKind{
	MaskMain, MaskB, MaskSCI, MaskSMI, MaskAlwaysReport,
	MaskActiveWake, MaskLazyWakeS0ix, MaskLazyWakeS3, MaskLazyWakeS5,
}

func (k MaskKind) String() string {
	switch k {
	case MaskMain:
		return "main"
	case MaskB:
		return "b"
	case MaskSCI:
		return "sci"
	case MaskSMI:
		return "smi"
	case MaskAlwaysReport:
		return "always-report"
	case MaskActiveWake:
		return "active-wake"
	case MaskLazyWakeS0ix:
		return "lazy-wake-s0ix"
	case MaskLazyWakeS3:
		return "lazy-wake-s3"
	case MaskLazyWakeS5:
		return "lazy-wake-s5"
	}
	return fmt.Sprintf("mask(%d)", uint8(k))
}

// ParseMaskKind is the inverse of MaskKind.String.
func ParseMaskKind(s string) (MaskKind, error) {
	for _, k := range MaskKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event mask %q", s)
}

type maskAction uint8

// Unified HOST_EVENT actions.
const (
	actionGet maskAction = iota
	actionSet
	actionClear
)

func (a maskAction) String() string {
	return [...]string{"get", "set", "clear"}[a]
}

// legacyMaskCommands maps each kind to the pre-UHEPI commands that act on
// it. A missing action has no legacy command. The lazy wake masks did not
// exist before UHEPI and fall back to the single wake mask.
var legacyMaskCommands = map[MaskKind]map[maskAction]Cmd{
	MaskMain: {actionClear: CmdHostEventClear},
	MaskB:    {actionClear: CmdHostEventClearB, actionGet: CmdHostEventGetB},
	MaskSCI:  {actionSet: CmdHostEventSetSCIMask, actionGet: CmdHostEventGetSCIMask},
	MaskSMI:  {actionSet: CmdHostEventSetSMIMask, actionGet: CmdHostEventGetSMIMask},

	MaskAlwaysReport: {},

	MaskActiveWake:   {actionSet: CmdHostEventSetWakeMask, actionGet: CmdHostEventGetWakeMask},
	MaskLazyWakeS0ix: {actionSet: CmdHostEventSetWakeMask, actionGet: CmdHostEventGetWakeMask},
	MaskLazyWakeS3:   {actionSet: CmdHostEventSetWakeMask, actionGet: CmdHostEventGetWakeMask},
	MaskLazyWakeS5:   {actionSet: CmdHostEventSetWakeMask, actionGet: CmdHostEventGetWakeMask},
}

// UHEPISupported reports whether the EC implements the unified HOST_EVENT
// command. The EC is asked once; a failed query counts as unsupported for
// the rest of the boot.
func (c *Channel) UHEPISupported() bool {
	switch c.uhepi {
	case yes:
		return true
	case no:
		return false
	}
	f, err := c.Features()
	if err != nil {
		log.Warnf("EC feature query failed, using legacy event commands: %v", err)
		c.uhepi = no
		return false
	}
	if f.Has(FeatureUnifiedWakeMasks) {
		c.uhepi = yes
		return true
	}
	c.uhepi = no
	return false
}

func (c *Channel) hostEvent(action maskAction, kind MaskKind, value uint64) (uint64, error) {
	p := HostEventParams{Action: uint8(action), MaskType: kind, Value: value}
	var r HostEventResponse
	if action == actionGet {
		if err := c.call(CmdHostEvent, 0, &p, &r); err != nil {
			return 0, err
		}
		return r.Value, nil
	}
	return 0, c.call(CmdHostEvent, 0, &p, nil)
}

func (c *Channel) legacyMask(action maskAction, kind MaskKind, value uint64) (uint64, error) {
	cmd, ok := legacyMaskCommands[kind][action]
	if !ok {
		return 0, fmt.Errorf("%s %v mask: %w", action, kind, ErrUnsupported)
	}
	if action == actionGet {
		var r HostEventMask
		if err := c.call(cmd, 0, nil, &r); err != nil {
			return 0, err
		}
		return uint64(r.Mask), nil
	}
	return 0, c.call(cmd, 0, &HostEventMask{Mask: uint32(value)}, nil)
}

// GetMask returns the mask of the given kind. On legacy firmware a kind
// that cannot be read returns 0 and no error, and nothing is sent.
func (c *Channel) GetMask(kind MaskKind) (uint64, error) {
	if c.UHEPISupported() {
		return c.hostEvent(actionGet, kind, 0)
	}
	if _, ok := legacyMaskCommands[kind][actionGet]; !ok {
		return 0, nil
	}
	return c.legacyMask(actionGet, kind, 0)
}

// SetMask sets the mask of the given kind.
func (c *Channel) SetMask(kind MaskKind, value uint64) error {
	if c.UHEPISupported() {
		_, err := c.hostEvent(actionSet, kind, value)
		return err
	}
	_, err := c.legacyMask(actionSet, kind, value)
	return err
}

// ClearMask clears the bits of value in the mask of the given kind.
func (c *Channel) ClearMask(kind MaskKind, value uint64) error {
	if c.UHEPISupported() {
		_, err := c.hostEvent(actionClear, kind, value)
		return err
	}
	_, err := c.legacyMask(actionClear, kind, value)
	return err
}

// SetSCIMask sets the events that raise an SCI.
func (c *Channel) SetSCIMask(mask uint64) error {
	log.Debugf("EC: SCI mask = %#x", mask)
	return c.SetMask(MaskSCI, mask)
}

// SetSMIMask sets the events that raise an SMI.
func (c *Channel) SetSMIMask(mask uint64) error {
	log.Debugf("EC: SMI mask = %#x", mask)
	return c.SetMask(MaskSMI, mask)
}

// SetWakeMask sets the events that wake the system right now.
func (c *Channel) SetWakeMask(mask uint64) error {
	log.Debugf("EC: active wake mask = %#x", mask)
	return c.SetMask(MaskActiveWake, mask)
}

// SetLazyWakeMasks sets the wake masks the EC applies when the system
// enters S5, S3 and S0ix. Each mask is sent even if an earlier one
// failed; the failures are returned together. Legacy firmware has a
// single wake mask, so nothing is programmed there and nil is returned.
func (c *Channel) SetLazyWakeMasks(s5, s3, s0ix uint64) error {
	if !c.UHEPISupported() {
		return nil
	}
	var errs *multierror.Error
	set := func(kind MaskKind, mask uint64) {
		log.Debugf("EC: %v mask = %#x", kind, mask)
		if err := c.SetMask(kind, mask); err != nil {
			log.Errorf("EC: setting %v mask: %v", kind, err)
			errs = multierror.Append(errs, fmt.Errorf("%v mask: %w", kind, err))
		}
	}
	set(MaskLazyWakeS5, s5)
	set(MaskLazyWakeS3, s3)
	// A zero S0ix mask is left alone: not every EC knows about S0ix.
	if s0ix != 0 {
		set(MaskLazyWakeS0ix, s0ix)
	}
	return errs.ErrorOrNil()
}

// GetEventsB returns the pending events in the B copy of the host events.
func (c *Channel) GetEventsB() (uint64, error) {
	return c.GetMask(MaskB)
}

// ClearEventsB acknowledges events in the B copy.
func (c *Channel) ClearEventsB(mask uint64) error {
	return c.ClearMask(MaskB, mask)
}
