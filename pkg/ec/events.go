// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/linuxboot/chromeec/pkg/elog"
	"github.com/linuxboot/chromeec/pkg/log"
)

// HostEvent is an EC host event number. Event n is bit n-1 of a mask.
type HostEvent uint8

// Host events.
const (
	EventLidClosed HostEvent = iota + 1
	EventLidOpen
	EventPowerButton
	EventACConnected
	EventACDisconnected
	EventBatteryLow
	EventBatteryCritical
	EventBattery
	EventThermalThreshold
	EventDevice
	EventThermal
	EventUSBCharger
	EventKeyPressed
	EventInterfaceReady
	EventKeyboardRecovery
	EventThermalShutdown
	EventBatteryShutdown
	EventThrottleStart
	EventThrottleStop
	EventHangDetect
	EventHangReboot
	EventPDMCU
	EventBatteryStatus
	EventPanic
	EventKeyboardFastboot
	EventRTC
	EventMKBP
	EventUSBMux
	EventModeChange
	EventKeyboardRecoveryHWReinit
	EventWOV
)

var hostEventNames = map[HostEvent]string{
	EventLidClosed:                "lid-closed",
	EventLidOpen:                  "lid-open",
	EventPowerButton:              "power-button",
	EventACConnected:              "ac-connected",
	EventACDisconnected:           "ac-disconnected",
	EventBatteryLow:               "battery-low",
	EventBatteryCritical:          "battery-critical",
	EventBattery:                  "battery",
	EventThermalThreshold:         "thermal-threshold",
	EventDevice:                   "device",
	EventThermal:                  "thermal",
	EventUSBCharger:               "usb-charger",
	EventKeyPressed:               "key-pressed",
	EventInterfaceReady:           "interface-ready",
	EventKeyboardRecovery:         "keyboard-recovery",
	EventThermalShutdown:          "thermal-shutdown",
	EventBatteryShutdown:          "battery-shutdown",
	EventThrottleStart:            "throttle-start",
	EventThrottleStop:             "throttle-stop",
	EventHangDetect:               "hang-detect",
	EventHangReboot:               "hang-reboot",
	EventPDMCU:                    "pd-mcu",
	EventBatteryStatus:            "battery-status",
	EventPanic:                    "panic",
	EventKeyboardFastboot:         "keyboard-fastboot",
	EventRTC:                      "rtc",
	EventMKBP:                     "mkbp",
	EventUSBMux:                   "usb-mux",
	EventModeChange:               "mode-change",
	EventKeyboardRecoveryHWReinit: "keyboard-recovery-hw-reinit",
	EventWOV:                      "wov",
}

func (e HostEvent) String() string {
	if n, ok := hostEventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Mask returns the mask bit of e.
func (e HostEvent) Mask() uint64 {
	if e == 0 || e > 64 {
		return 0
	}
	return 1 << (e - 1)
}

// ParseHostEvent is the inverse of HostEvent.String.
func ParseHostEvent(s string) (HostEvent, error) {
	for e, n := range hostEventNames {
		if n == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown host event %q", s)
}

// EventMask ORs the mask bits of events.
func EventMask(events ...HostEvent) uint64 {
	var m uint64
	for _, e := range events {
		m |= e.Mask()
	}
	return m
}

// HostEvents returns the events set in mask, lowest first.
func HostEvents(mask uint64) []HostEvent {
	var evs []HostEvent
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		evs = append(evs, HostEvent(i+1))
		mask &^= 1 << i
	}
	return evs
}

// FormatEvents renders mask as a list of event names.
func FormatEvents(mask uint64) string {
	var names []string
	for _, e := range HostEvents(mask) {
		names = append(names, e.String())
	}
	return strings.Join(names, ",")
}

// DeviceEvent is an EC device event number; event n is bit n.
type DeviceEvent uint8

// Device events.
const (
	DeviceEventTrackpad DeviceEvent = iota
	DeviceEventDSP
	DeviceEventWiFi
)

func (e DeviceEvent) String() string {
	switch e {
	case DeviceEventTrackpad:
		return "trackpad"
	case DeviceEventDSP:
		return "dsp"
	case DeviceEventWiFi:
		return "wifi"
	}
	return fmt.Sprintf("device-event(%d)", uint8(e))
}

func (c *Channel) deviceEvent(param uint8, mask uint32) (uint32, error) {
	var r DeviceEventResponse
	if err := c.call(CmdDeviceEvent, 0, &DeviceEventParams{EventMask: mask, Param: param}, &r); err != nil {
		return 0, err
	}
	return r.EventMask, nil
}

// DeviceEvents reads and clears the pending device events.
func (c *Channel) DeviceEvents() (uint32, error) {
	return c.deviceEvent(DeviceEventGetCurrent, 0)
}

// EnabledDeviceEvents returns the device events that may wake the host.
func (c *Channel) EnabledDeviceEvents() (uint32, error) {
	return c.deviceEvent(DeviceEventGetEnabled, 0)
}

// SetEnabledDeviceEvents selects the device events that may wake the host.
func (c *Channel) SetEnabledDeviceEvents(mask uint32) error {
	_, err := c.deviceEvent(DeviceEventSetEnabled, mask)
	return err
}

// LogEvents records the pending B events within mask in the event log and
// acknowledges them. It returns the events it logged.
func (c *Channel) LogEvents(mask uint64) (uint64, error) {
	pending, err := c.GetEventsB()
	if err != nil {
		return 0, err
	}
	events := pending & mask
	for _, e := range HostEvents(events) {
		c.logEvent(elog.TypeECEvent, uint32(e), e.String())
	}
	if events == 0 {
		return 0, nil
	}
	log.Infof("EC events: %s", FormatEvents(events))
	return events, c.ClearEventsB(events)
}

// LogDeviceEvents records the pending device events within mask. Nothing
// is sent when mask is empty or the EC lacks device events.
func (c *Channel) LogDeviceEvents(mask uint32) (uint32, error) {
	if mask == 0 {
		return 0, nil
	}
	ok, err := c.CheckFeature(FeatureDeviceEvent)
	if err != nil || !ok {
		return 0, err
	}
	cur, err := c.DeviceEvents()
	if err != nil {
		return 0, err
	}
	events := cur & mask
	log.Infof("EC device events: %#x", events)
	for i := 0; i < 32; i++ {
		if events&(1<<i) != 0 {
			c.logEvent(elog.TypeECDeviceEvent, uint32(i), DeviceEvent(i).String())
		}
	}
	return events, nil
}

// RecoveryEvent returns the keyboard recovery event in a B event mask, if
// any. A hardware-reinit request wins over a plain recovery request.
func RecoveryEvent(events uint64) (HostEvent, bool) {
	if events&EventKeyboardRecovery.Mask() == 0 {
		return 0, false
	}
	if events&EventKeyboardRecoveryHWReinit.Mask() != 0 {
		return EventKeyboardRecoveryHWReinit, true
	}
	return EventKeyboardRecovery, true
}

// LogRecovery records a keyboard recovery request found in events.
func (c *Channel) LogRecovery(events uint64) bool {
	e, ok := RecoveryEvent(events)
	if ok {
		log.Infof("EC: %v requested", e)
		c.logEvent(elog.TypeRecoveryMode, uint32(e), e.String())
	}
	return ok
}
