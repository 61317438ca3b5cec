// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"errors"
	"fmt"
	"time"

	"github.com/linuxboot/chromeec/pkg/log"
)

// helloIn is the value HELLO sends; the EC must answer helloIn+helloMagic.
const helloIn = 0x10203040

// Hello checks that the EC answers.
func (c *Channel) Hello() error {
	var r HelloResponse
	if err := c.call(CmdHello, 0, &HelloParams{InData: helloIn}, &r); err != nil {
		return err
	}
	if want := uint32(helloIn + helloMagic); r.OutData != want {
		return fmt.Errorf("EC said hello with %#08x, want %#08x: %w", r.OutData, want, ErrBadPacket)
	}
	return nil
}

// ProtoVersion returns the host command protocol version of the EC.
func (c *Channel) ProtoVersion() (uint32, error) {
	var r ProtoVersionResponse
	if err := c.call(CmdProtoVersion, 0, nil, &r); err != nil {
		return 0, err
	}
	return r.Version, nil
}

// Version is the decoded GET_VERSION response.
type Version struct {
	RO      string
	RW      string
	Current Image
}

// Version queries the firmware versions and remembers which image runs.
func (c *Channel) Version() (*Version, error) {
	var r VersionResponse
	if err := c.call(CmdGetVersion, 0, nil, &r); err != nil {
		return nil, err
	}
	v := &Version{
		RO:      cString(r.VersionRO[:]),
		RW:      cString(r.VersionRW[:]),
		Current: r.CurrentImage,
	}
	log.Debugf("EC: RO %q, RW %q, running %v", v.RO, v.RW, v.Current)
	if c.image == ImageUnknown {
		c.image = v.Current
	}
	return v, nil
}

// CurrentImage returns the running EC image. It asks the EC until it gets
// a definite answer and caches that answer for the life of the Channel.
func (c *Channel) CurrentImage() Image {
	if c.image != ImageUnknown {
		return c.image
	}
	if _, err := c.Version(); err != nil {
		log.Warnf("EC version query failed: %v", err)
	}
	return c.image
}

// RunningRO reports whether the EC runs its RO image.
func (c *Channel) RunningRO() bool {
	return c.CurrentImage() == ImageRO
}

// BuildInfo returns the EC build string.
func (c *Channel) BuildInfo() (string, error) {
	buf := make([]byte, LegacyParamSize)
	n, err := c.Command(CmdGetBuildInfo, 0, nil, buf)
	if err != nil {
		return "", err
	}
	return cString(buf[:n]), nil
}

// Chip is the decoded GET_CHIP_INFO response.
type Chip struct {
	Vendor   string
	Name     string
	Revision string
}

// ChipInfo returns the EC chip identity.
func (c *Channel) ChipInfo() (*Chip, error) {
	var r ChipInfo
	if err := c.call(CmdGetChipInfo, 0, nil, &r); err != nil {
		return nil, err
	}
	return &Chip{
		Vendor:   cString(r.Vendor[:]),
		Name:     cString(r.Name[:]),
		Revision: cString(r.Revision[:]),
	}, nil
}

// ProtocolInfo returns the EC's protocol versions and packet limits.
func (c *Channel) ProtocolInfo() (*ProtocolInfo, error) {
	var r ProtocolInfo
	if err := c.call(CmdGetProtocolInfo, 0, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Features returns the EC feature flags.
func (c *Channel) Features() (*FeaturesResponse, error) {
	var r FeaturesResponse
	if err := c.call(CmdGetFeatures, 0, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CheckFeature reports whether the EC has feature f.
func (c *Channel) CheckFeature(f Feature) (bool, error) {
	r, err := c.Features()
	if err != nil {
		return false, err
	}
	return r.Has(f), nil
}

// CmdVersions returns the mask of versions the EC supports for cmd.
func (c *Channel) CmdVersions(cmd Cmd) (uint32, error) {
	var r CmdVersionsResponse
	if err := c.call(CmdGetCmdVersions, 1, &CmdVersionsParams{Cmd: uint16(cmd)}, &r); err != nil {
		return 0, err
	}
	return r.VersionMask, nil
}

// CmdVersionSupported reports whether the EC accepts version ver of cmd.
// A failed query counts as unsupported.
func (c *Channel) CmdVersionSupported(cmd Cmd, ver uint8) bool {
	mask, err := c.CmdVersions(cmd)
	if err != nil {
		log.Debugf("EC: versions of %v: %v", cmd, err)
		return false
	}
	return mask&(1<<ver) != 0
}

// BoardVersion returns the board revision strapped on the EC.
func (c *Channel) BoardVersion() (uint16, error) {
	var r BoardVersionResponse
	if err := c.call(CmdGetBoardVersion, 0, nil, &r); err != nil {
		return 0, err
	}
	return r.BoardVersion, nil
}

// SKUID returns the SKU ID the EC reports.
func (c *Channel) SKUID() (uint32, error) {
	var r SKUID
	if err := c.call(CmdGetSKUID, 0, nil, &r); err != nil {
		return 0, err
	}
	return r.SKUID, nil
}

// SetSKUID stores a SKU ID in the EC.
func (c *Channel) SetSKUID(id uint32) error {
	return c.call(CmdSetSKUID, 0, &SKUID{SKUID: id}, nil)
}

// CBIUint32 returns a numeric CrOS Board Info field.
func (c *Channel) CBIUint32(tag CBITag) (uint32, error) {
	var r struct{ Value uint32 }
	if err := c.call(CmdGetCrosBoardInfo, 0, &CBIGetParams{Tag: tag}, &r); err != nil {
		return 0, err
	}
	return r.Value, nil
}

// CBIString returns a string CrOS Board Info field of at most max bytes.
func (c *Channel) CBIString(tag CBITag, max int) (string, error) {
	buf := make([]byte, max)
	n, err := c.Command(CmdGetCrosBoardInfo, 0, Marshal(&CBIGetParams{Tag: tag}), buf)
	if err != nil {
		return "", err
	}
	return cString(buf[:n]), nil
}

// SetCBI writes a CrOS Board Info field.
func (c *Channel) SetCBI(tag CBITag, data []byte) error {
	in := append(Marshal(&CBISetHeader{Tag: tag, Size: uint32(len(data))}), data...)
	_, err := c.Command(CmdSetCrosBoardInfo, 0, in, nil)
	return err
}

// BatteryCutoff disconnects the battery, either now or once the AP is off.
func (c *Channel) BatteryCutoff(atShutdown bool) error {
	var p BatteryCutoffParams
	if atShutdown {
		p.Flags = BatteryCutoffAtShutdown
	}
	return c.call(CmdBatteryCutOff, 1, &p, nil)
}

// RTC returns the EC real-time clock.
func (c *Channel) RTC() (time.Time, error) {
	var r RTC
	if err := c.call(CmdRTCGetValue, 0, nil, &r); err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(r.Time), 0).UTC(), nil
}

// SetRTC sets the EC real-time clock.
func (c *Channel) SetRTC(t time.Time) error {
	return c.call(CmdRTCSetValue, 0, &RTC{Time: uint32(t.Unix())}, nil)
}

// KeyboardBacklight returns the keyboard backlight level in percent.
func (c *Channel) KeyboardBacklight() (uint8, bool, error) {
	var r KeyboardBacklight
	if err := c.call(CmdPwmGetKeyboardBacklight, 0, nil, &r); err != nil {
		return 0, false, err
	}
	return r.Percent, r.Enabled != 0, nil
}

// SetKeyboardBacklight sets the keyboard backlight; percent wraps at 101.
func (c *Channel) SetKeyboardBacklight(percent int) error {
	return c.call(CmdPwmSetKeyboardBacklight, 0, &KeyboardBacklightParams{Percent: uint8(percent % 101)}, nil)
}

// Post shows a POST code on the keyboard backlight.
func (c *Channel) Post(code uint8) error {
	return c.SetKeyboardBacklight(int(code/4 + code/8))
}

// ThermalAutoFanCtrl hands fan control back to the EC's thermal loop.
func (c *Channel) ThermalAutoFanCtrl() error {
	return c.call(CmdThermalAutoFanCtrl, 0, nil, nil)
}

// USBChargeMode is a USB port charging mode.
type USBChargeMode uint8

// USB charge modes.
const (
	USBChargeModeDisabled USBChargeMode = iota
	USBChargeModeSDP2
	USBChargeModeCDP
	USBChargeModeDCPShort
	USBChargeModeEnabled
	USBChargeModeDefault
)

// SetUSBChargeMode sets the charging mode of a USB port.
func (c *Channel) SetUSBChargeMode(port uint8, mode USBChargeMode, inhibit bool) error {
	p := USBChargeModeParams{Port: port, ModeInhibit: uint8(mode) & 0x7f}
	if inhibit {
		p.ModeInhibit |= 0x80
	}
	return c.call(CmdUSBChargeSetMode, 0, &p, nil)
}

// USBPDPorts returns the number of USB PD ports.
func (c *Channel) USBPDPorts() (int, error) {
	var r USBPDPorts
	if err := c.call(CmdUSBPDPorts, 0, nil, &r); err != nil {
		return 0, err
	}
	return int(r.NumPorts), nil
}

// ResetFlagAPWatchdog is set in UptimeInfo.ECResetFlags after an AP
// watchdog reset.
const ResetFlagAPWatchdog = 1 << 18

// UptimeInfo returns EC uptime and the recent AP reset log.
func (c *Channel) UptimeInfo() (*UptimeInfo, error) {
	var r UptimeInfo
	if err := c.call(CmdGetUptimeInfo, 0, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// APWatchdogReset reports whether the last AP reset came from the
// watchdog. Errors read as false.
func (c *Channel) APWatchdogReset() bool {
	u, err := c.UptimeInfo()
	return err == nil && u.ECResetFlags&ResetFlagAPWatchdog != 0
}

// Vboot context retry parameters.
const (
	VbNvContextTries = 3
	VbNvContextDelay = 10 * time.Millisecond
)

func (c *Channel) vbnvContext(p *VbNvContextParams, r *VbNvContextResponse) error {
	var err error
	for try := 1; try <= VbNvContextTries; try++ {
		if r != nil {
			err = c.call(CmdVbNvContext, 1, p, r)
		} else {
			err = c.call(CmdVbNvContext, 1, p, nil)
		}
		if err == nil {
			return nil
		}
		log.Errorf("vboot context op %d, try %d: %v", p.Op, try, err)
		c.clock.Sleep(VbNvContextDelay)
	}
	return err
}

// ReadVbootContext reads the vboot nonvolatile context block, retrying
// failed reads.
func (c *Channel) ReadVbootContext() ([]byte, error) {
	var r VbNvContextResponse
	if err := c.vbnvContext(&VbNvContextParams{Op: VbNvContextOpRead}, &r); err != nil {
		return nil, err
	}
	return r.Block[:], nil
}

// WriteVbootContext writes the vboot nonvolatile context block, retrying
// failed writes.
func (c *Channel) WriteVbootContext(block []byte) error {
	if len(block) != VbNvBlockSize {
		return fmt.Errorf("vboot context is %d bytes, want %d", len(block), VbNvBlockSize)
	}
	p := VbNvContextParams{Op: VbNvContextOpWrite}
	copy(p.Block[:], block)
	return c.vbnvContext(&p, nil)
}

// EFSVerify asks the EC to verify region. ECs without EFS succeed.
func (c *Channel) EFSVerify(region FlashRegionID) error {
	err := c.call(CmdEFSVerify, 0, &EFSVerifyParams{Region: uint8(region)}, nil)
	if errors.Is(err, ErrUnsupported) {
		return nil
	}
	return err
}
