// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Endian is the byte order of every host command structure.
var Endian = binary.LittleEndian

// The structures below mirror the EC's host command ABI field for field.
// encoding/binary writes them without padding, in declaration order, so
// the declarations are the wire layout.

// HelloParams is the HELLO request.
type HelloParams struct {
	InData uint32
}

// HelloResponse is the HELLO response.
type HelloResponse struct {
	OutData uint32
}

// ProtoVersionResponse is the PROTO_VERSION response.
type ProtoVersionResponse struct {
	Version uint32
}

// VersionResponse is the GET_VERSION response.
type VersionResponse struct {
	VersionRO    [32]byte
	VersionRW    [32]byte
	Reserved     [32]byte
	CurrentImage Image
}

// ChipInfo is the GET_CHIP_INFO response.
type ChipInfo struct {
	Vendor   [32]byte
	Name     [32]byte
	Revision [32]byte
}

// BoardVersionResponse is the GET_BOARD_VERSION response.
type BoardVersionResponse struct {
	BoardVersion uint16
}

// CmdVersionsParams is version 1 of the GET_CMD_VERSIONS request.
type CmdVersionsParams struct {
	Cmd uint16
}

// CmdVersionsResponse is the GET_CMD_VERSIONS response; bit n set means
// version n is supported.
type CmdVersionsResponse struct {
	VersionMask uint32
}

// ProtocolInfo is the GET_PROTOCOL_INFO response.
type ProtocolInfo struct {
	ProtocolVersions      uint32
	MaxRequestPacketSize  uint16
	MaxResponsePacketSize uint16
	Flags                 uint32
}

// FeaturesResponse is the GET_FEATURES response.
type FeaturesResponse struct {
	Flags [featureWords]uint32
}

// Has reports whether feature f is set.
func (r *FeaturesResponse) Has(f Feature) bool {
	if int(f/32) >= len(r.Flags) {
		return false
	}
	return r.Flags[f/32]&(1<<(f%32)) != 0
}

// SKUID is the GET_SKU_ID response and SET_SKU_ID request.
type SKUID struct {
	SKUID uint32
}

// FlashInfoV0 is version 0 of the FLASH_INFO response.
type FlashInfoV0 struct {
	FlashSize        uint32
	WriteBlockSize   uint32
	EraseBlockSize   uint32
	ProtectBlockSize uint32
}

// FlashInfo is version 1 of the FLASH_INFO response.
type FlashInfo struct {
	FlashInfoV0
	WriteIdealSize uint32
	Flags          uint32
}

// FlashRange is the FLASH_READ and FLASH_ERASE request, and the header of
// FLASH_WRITE.
type FlashRange struct {
	Offset uint32
	Size   uint32
}

// FlashProtectParams is the FLASH_PROTECT request.
type FlashProtectParams struct {
	Mask  uint32
	Flags uint32
}

// FlashProtect is the FLASH_PROTECT response.
type FlashProtect struct {
	Flags         uint32
	ValidFlags    uint32
	WritableFlags uint32
}

// Flash protect flags.
const (
	FlashProtectROAtBoot = 1 << 0
	FlashProtectRONow    = 1 << 1
	FlashProtectAllNow   = 1 << 2
	FlashProtectGPIO     = 1 << 3
)

// FlashRegionInfoParams is the FLASH_REGION_INFO request.
type FlashRegionInfoParams struct {
	Region FlashRegionID
}

// FlashRegion is the FLASH_REGION_INFO response.
type FlashRegion struct {
	Offset uint32
	Size   uint32
}

// VbNvContextParams is the VBNV_CONTEXT request.
type VbNvContextParams struct {
	Op    uint32
	Block [VbNvBlockSize]byte
}

// VBNV_CONTEXT operations.
const (
	VbNvContextOpRead  = 0
	VbNvContextOpWrite = 1
)

// VbNvContextResponse is the VBNV_CONTEXT response.
type VbNvContextResponse struct {
	Block [VbNvBlockSize]byte
}

// KeyboardBacklightParams is the PWM_SET_KEYBOARD_BACKLIGHT request.
type KeyboardBacklightParams struct {
	Percent uint8
}

// KeyboardBacklight is the PWM_GET_KEYBOARD_BACKLIGHT response.
type KeyboardBacklight struct {
	Percent uint8
	Enabled uint8
}

// VbootHashParams is the VBOOT_HASH request.
type VbootHashParams struct {
	Cmd       uint8
	HashType  uint8
	NonceSize uint8
	Reserved0 uint8
	Offset    uint32
	Size      uint32
	Nonce     [64]byte
}

// VbootHash is the VBOOT_HASH response.
type VbootHash struct {
	Status     HashStatus
	HashType   uint8
	DigestSize uint8
	Reserved0  uint8
	Offset     uint32
	Size       uint32
	Digest     [64]byte
}

// Sum returns the valid part of the digest.
func (h *VbootHash) Sum() []byte {
	n := int(h.DigestSize)
	if n > len(h.Digest) {
		n = len(h.Digest)
	}
	return h.Digest[:n]
}

// USBChargeModeParams is the USB_CHARGE_SET_MODE request. ModeInhibit
// packs the 7-bit mode with inhibit_charge in bit 7.
type USBChargeModeParams struct {
	Port        uint8
	ModeInhibit uint8
}

// RTC is the RTC_GET_VALUE response and RTC_SET_VALUE request.
type RTC struct {
	Time uint32
}

// HostEventMask is the request or response of the legacy mask commands.
type HostEventMask struct {
	Mask uint32
}

// HostEventParams is the unified HOST_EVENT request.
type HostEventParams struct {
	Action   uint8
	MaskType MaskKind
	Reserved uint16
	Value    uint64
}

// HostEventResponse is the unified HOST_EVENT response.
type HostEventResponse struct {
	Value uint64
}

// BatteryCutoffParams is the BATTERY_CUT_OFF request.
type BatteryCutoffParams struct {
	Flags uint8
}

// BatteryCutoffAtShutdown defers the cutoff until the AP shuts down.
const BatteryCutoffAtShutdown = 1 << 0

// DeviceEventParams is the DEVICE_EVENT request.
type DeviceEventParams struct {
	EventMask uint32
	Param     uint8
}

// DEVICE_EVENT parameters.
const (
	DeviceEventGetCurrent = 0
	DeviceEventGetEnabled = 1
	DeviceEventSetEnabled = 2
)

// DeviceEventResponse is the DEVICE_EVENT response.
type DeviceEventResponse struct {
	EventMask uint32
}

// RebootParams is the REBOOT_EC request.
type RebootParams struct {
	Cmd   RebootCmd
	Flags uint8
}

// USBPDPorts is the USB_PD_PORTS response.
type USBPDPorts struct {
	NumPorts uint8
}

// USBPDPowerInfoParams is the USB_PD_POWER_INFO request.
type USBPDPowerInfoParams struct {
	Port uint8
}

// USBChargeMeasures are the limits and readings of a charger in mV and mA.
type USBChargeMeasures struct {
	VoltageMax uint16
	VoltageNow uint16
	CurrentMax uint16
	CurrentLim uint16
}

// USBPDPowerInfo is the USB_PD_POWER_INFO response.
type USBPDPowerInfo struct {
	Role     uint8
	Type     ChargerType
	DualRole uint8
	Reserved uint8
	Meas     USBChargeMeasures
	MaxPower uint32
}

// MaxWatts returns the most the charger can deliver, in whole watts.
func (p *USBPDPowerInfo) MaxWatts() uint32 {
	return uint32(p.Meas.CurrentMax) * uint32(p.Meas.VoltageMax) / 1000000
}

// ChargerLimitParams is the OVERRIDE_DEDICATED_CHARGER_LIMIT request.
type ChargerLimitParams struct {
	CurrentLim uint16
	VoltageLim uint16
}

// USBPDControlParams is the USB_PD_CONTROL request.
type USBPDControlParams struct {
	Port uint8
	Role PDRole
	Mux  uint8
	Swap uint8
}

// USBPDControl is version 0 of the USB_PD_CONTROL response.
type USBPDControl struct {
	Enabled  uint8
	Role     uint8
	Polarity uint8
	State    uint8
}

// AltModeParams is the USB_PD_GET_AMODE request.
type AltModeParams struct {
	SVIDIndex uint16
	Port      uint8
}

// AltMode is the USB_PD_GET_AMODE response. A zero SVID ends the list.
type AltMode struct {
	SVID uint16
	OPos uint16
	VDO  [6]uint32
}

// ChargeStateParams is the CHARGE_STATE request. The EC packs it, so
// Param starts at the second byte.
type ChargeStateParams struct {
	Cmd   uint8
	Param uint32
	Value uint32
}

// CHARGE_STATE commands and parameters.
const (
	ChargeStateCmdGetState = 0
	ChargeStateCmdGetParam = 1
	ChargeStateCmdSetParam = 2

	ChargeStateParamLimitPower = 5
)

// ChargeStateParam is the CHARGE_STATE response to a get_param.
type ChargeStateParam struct {
	Value uint32
}

// I2CPassthruParams precedes the messages of an I2C_PASSTHRU request.
type I2CPassthruParams struct {
	Port    uint8
	NumMsgs uint8
}

// I2CPassthruMsg describes one I2C message. The write data of all
// messages follows the message list.
type I2CPassthruMsg struct {
	AddrFlags uint16
	Len       uint16
}

// I2CFlagRead marks a read message in I2CPassthruMsg.AddrFlags.
const I2CFlagRead = 1 << 15

// I2CPassthruResponse precedes the read data of an I2C_PASSTHRU response.
type I2CPassthruResponse struct {
	Status  uint8
	NumMsgs uint8
}

// I2C_PASSTHRU status bits.
const (
	I2CStatusNAK     = 1 << 0
	I2CStatusTimeout = 1 << 1
	I2CStatusError   = I2CStatusNAK | I2CStatusTimeout
)

// EFSVerifyParams is the EFS_VERIFY request.
type EFSVerifyParams struct {
	Region uint8
}

// CBIGetParams is the GET_CROS_BOARD_INFO request.
type CBIGetParams struct {
	Tag  CBITag
	Flag uint32
}

// CBISetHeader precedes the data of a SET_CROS_BOARD_INFO request.
type CBISetHeader struct {
	Tag  CBITag
	Flag uint32
	Size uint32
}

// APResetLogEntry is one entry of the uptime reset log.
type APResetLogEntry struct {
	ResetCause  uint16
	Reserved    uint16
	ResetTimeMs uint32
}

// UptimeInfo is the GET_UPTIME_INFO response.
type UptimeInfo struct {
	TimeSinceECBootMs   uint32
	APResetsSinceECBoot uint32
	ECResetFlags        uint32
	RecentAPReset       [4]APResetLogEntry
}

// Marshal encodes a fixed-size host command structure.
func Marshal(v interface{}) []byte {
	var b bytes.Buffer
	if err := binary.Write(&b, Endian, v); err != nil {
		// Only non fixed-size types fail, which is a programming error.
		panic(fmt.Sprintf("ec.Marshal(%T): %v", v, err))
	}
	return b.Bytes()
}

// Unmarshal decodes a fixed-size host command structure from the front of b.
func Unmarshal(b []byte, v interface{}) error {
	n := binary.Size(v)
	if n < 0 {
		return fmt.Errorf("ec.Unmarshal: %T is not a fixed-size structure", v)
	}
	if len(b) < n {
		return fmt.Errorf("%T: got %d bytes, want %d: %w", v, len(b), n, ErrShortResponse)
	}
	return binary.Read(bytes.NewReader(b[:n]), Endian, v)
}

// Size returns the encoded size of a fixed-size host command structure.
func Size(v interface{}) int {
	return binary.Size(v)
}

// cString returns b up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// PutCString copies s into a NUL padded fixed-size field.
func PutCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst[:len(dst)-1], s)
}
