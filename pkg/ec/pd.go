// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
	"time"

	"github.com/linuxboot/chromeec/pkg/log"
)

// ChargerType is the kind of charger attached to a port.
type ChargerType uint8

// Charger types.
const (
	ChargerNone ChargerType = iota
	ChargerPD
	ChargerTypeC
	ChargerProprietary
	ChargerBC12DCP
	ChargerBC12CDP
	ChargerBC12SDP
	ChargerOther
	ChargerVBus
	ChargerUnknown
	ChargerDedicated
)

var chargerNames = [...]string{
	"none", "PD", "Type-C", "proprietary", "BC1.2 DCP", "BC1.2 CDP",
	"BC1.2 SDP", "other", "VBUS", "unknown", "dedicated",
}

func (t ChargerType) String() string {
	if int(t) < len(chargerNames) {
		return chargerNames[t]
	}
	return fmt.Sprintf("charger(%d)", uint8(t))
}

// PDRole is a power role request of USB_PD_CONTROL.
type PDRole uint8

// PD roles.
const (
	PDRoleNoChange PDRole = iota
	PDRoleToggleOn
	PDRoleToggleOff
	PDRoleForceSink
	PDRoleForceSource
	PDRoleFreeze
)

var pdRoleNames = [...]string{
	"no-change", "toggle-on", "toggle-off", "sink", "source", "freeze",
}

func (r PDRole) String() string {
	if int(r) < len(pdRoleNames) {
		return pdRoleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParsePDRole returns the role named s.
func ParsePDRole(s string) (PDRole, error) {
	for i, n := range pdRoleNames {
		if n == s {
			return PDRole(i), nil
		}
	}
	return 0, fmt.Errorf("unknown PD role %q", s)
}

// PDPowerChargingPort asks USB_PD_POWER_INFO about the active charger.
const PDPowerChargingPort = 0xff

// SVIDDisplayPort is the standard ID of the DisplayPort alternate mode.
const SVIDDisplayPort = 0xff01

// DisplayPortPollInterval is how often WaitForDisplayPort asks the EC.
const DisplayPortPollInterval = 200 * time.Millisecond

// ChargerInfo returns what the EC knows about the active charger.
func (c *Channel) ChargerInfo() (*USBPDPowerInfo, error) {
	var r USBPDPowerInfo
	if err := c.call(CmdUSBPDPowerInfo, 0, &USBPDPowerInfoParams{Port: PDPowerChargingPort}, &r); err != nil {
		return nil, err
	}
	log.Debugf("EC: %v charger, %dmV %dmA max", r.Type, r.Meas.VoltageMax, r.Meas.CurrentMax)
	return &r, nil
}

// OverrideDedicatedChargerLimit caps the input of a dedicated charger,
// in mA and mV.
func (c *Channel) OverrideDedicatedChargerLimit(currentLim, voltageLim uint16) error {
	return c.call(CmdOverrideChargerLimit, 0, &ChargerLimitParams{CurrentLim: currentLim, VoltageLim: voltageLim}, nil)
}

// SetUSBPDRole changes the power role of a PD port. The mux and any
// pending swap are left alone.
func (c *Channel) SetUSBPDRole(port uint8, role PDRole) error {
	var r USBPDControl
	return c.call(CmdUSBPDControl, 0, &USBPDControlParams{Port: port, Role: role}, &r)
}

// LimitPower reports whether the EC asks the host to limit its power
// draw, because the battery is low or the charger weak.
func (c *Channel) LimitPower() (bool, error) {
	var r ChargeStateParam
	p := ChargeStateParams{Cmd: ChargeStateCmdGetParam, Param: ChargeStateParamLimitPower}
	if err := c.call(CmdChargeState, 0, &p, &r); err != nil {
		return false, err
	}
	return r.Value != 0, nil
}

// AltModeActive reports whether any PD port has entered the alternate
// mode svid.
func (c *Channel) AltModeActive(svid uint16) (bool, error) {
	ports, err := c.USBPDPorts()
	if err != nil {
		return false, err
	}
	for port := 0; port < ports; port++ {
		for idx := 0; ; idx++ {
			var r AltMode
			if err := c.call(CmdUSBPDGetAltMode, 0, &AltModeParams{SVIDIndex: uint16(idx), Port: uint8(port)}, &r); err != nil {
				return false, err
			}
			if r.SVID == svid {
				return true, nil
			}
			if r.SVID == 0 {
				break
			}
		}
	}
	return false, nil
}

// WaitForDisplayPort waits until a PD port is in DisplayPort mode.
// Failed queries count as not ready.
func (c *Channel) WaitForDisplayPort(timeout time.Duration) error {
	log.Infof("EC: waiting for DisplayPort")
	start := c.clock.Now()
	for {
		ok, err := c.AltModeActive(SVIDDisplayPort)
		if ok {
			log.Infof("EC: DisplayPort ready after %v", c.clock.Now().Sub(start))
			return nil
		}
		if c.clock.Now().Sub(start) >= timeout {
			log.Warnf("EC: DisplayPort not ready after %v", timeout)
			if err != nil {
				return fmt.Errorf("DisplayPort after %v: %v: %w", timeout, err, ErrTimeout)
			}
			return fmt.Errorf("DisplayPort after %v: %w", timeout, ErrTimeout)
		}
		c.clock.Sleep(DisplayPortPollInterval)
	}
}
