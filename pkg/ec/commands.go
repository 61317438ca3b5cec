// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import "fmt"

// Cmd is a host command code.
type Cmd uint16

// Host command codes.
const (
	CmdProtoVersion            Cmd = 0x0000
	CmdHello                   Cmd = 0x0001
	CmdGetVersion              Cmd = 0x0002
	CmdGetBuildInfo            Cmd = 0x0004
	CmdGetChipInfo             Cmd = 0x0005
	CmdGetBoardVersion         Cmd = 0x0006
	CmdGetCmdVersions          Cmd = 0x0008
	CmdGetProtocolInfo         Cmd = 0x000b
	CmdGetFeatures             Cmd = 0x000d
	CmdGetSKUID                Cmd = 0x000e
	CmdSetSKUID                Cmd = 0x000f
	CmdFlashInfo               Cmd = 0x0010
	CmdFlashRead               Cmd = 0x0011
	CmdFlashWrite              Cmd = 0x0012
	CmdFlashErase              Cmd = 0x0013
	CmdFlashProtect            Cmd = 0x0015
	CmdFlashRegionInfo         Cmd = 0x0016
	CmdVbNvContext             Cmd = 0x0017
	CmdPwmGetKeyboardBacklight Cmd = 0x0022
	CmdPwmSetKeyboardBacklight Cmd = 0x0023
	CmdThermalAutoFanCtrl      Cmd = 0x0052
	CmdGetNextEvent            Cmd = 0x0067
	CmdVbootHash               Cmd = 0x002a
	CmdUSBChargeSetMode        Cmd = 0x0030
	CmdRTCGetValue             Cmd = 0x0044
	CmdRTCSetValue             Cmd = 0x0046
	CmdHostEventGetB           Cmd = 0x0087
	CmdHostEventGetSMIMask     Cmd = 0x0088
	CmdHostEventGetSCIMask     Cmd = 0x0089
	CmdHostEventSetSMIMask     Cmd = 0x008a
	CmdHostEventSetSCIMask     Cmd = 0x008b
	CmdHostEventClear          Cmd = 0x008c
	CmdHostEventGetWakeMask    Cmd = 0x008d
	CmdHostEventSetWakeMask    Cmd = 0x008e
	CmdHostEventClearB         Cmd = 0x008f
	CmdBatteryCutOff           Cmd = 0x0099
	CmdI2CPassthru             Cmd = 0x009e
	CmdChargeState             Cmd = 0x00a0
	CmdOverrideChargerLimit    Cmd = 0x00a3
	CmdHostEvent               Cmd = 0x00a4
	CmdDeviceEvent             Cmd = 0x00ad
	CmdRebootEC                Cmd = 0x00d2
	CmdUSBPDControl            Cmd = 0x0101
	CmdUSBPDPorts              Cmd = 0x0102
	CmdUSBPDPowerInfo          Cmd = 0x0103
	CmdUSBPDGetAltMode         Cmd = 0x0116
	CmdEFSVerify               Cmd = 0x011e
	CmdGetCrosBoardInfo        Cmd = 0x011f
	CmdSetCrosBoardInfo        Cmd = 0x0120
	CmdGetUptimeInfo           Cmd = 0x0121
)

var cmdNames = map[Cmd]string{
	CmdProtoVersion:            "PROTO_VERSION",
	CmdHello:                   "HELLO",
	CmdGetVersion:              "GET_VERSION",
	CmdGetBuildInfo:            "GET_BUILD_INFO",
	CmdGetChipInfo:             "GET_CHIP_INFO",
	CmdGetBoardVersion:         "GET_BOARD_VERSION",
	CmdGetCmdVersions:          "GET_CMD_VERSIONS",
	CmdGetProtocolInfo:         "GET_PROTOCOL_INFO",
	CmdGetFeatures:             "GET_FEATURES",
	CmdGetSKUID:                "GET_SKU_ID",
	CmdSetSKUID:                "SET_SKU_ID",
	CmdFlashInfo:               "FLASH_INFO",
	CmdFlashRead:               "FLASH_READ",
	CmdFlashWrite:              "FLASH_WRITE",
	CmdFlashErase:              "FLASH_ERASE",
	CmdFlashProtect:            "FLASH_PROTECT",
	CmdFlashRegionInfo:         "FLASH_REGION_INFO",
	CmdVbNvContext:             "VBNV_CONTEXT",
	CmdPwmGetKeyboardBacklight: "PWM_GET_KEYBOARD_BACKLIGHT",
	CmdPwmSetKeyboardBacklight: "PWM_SET_KEYBOARD_BACKLIGHT",
	CmdThermalAutoFanCtrl:      "THERMAL_AUTO_FAN_CTRL",
	CmdGetNextEvent:            "GET_NEXT_EVENT",
	CmdVbootHash:               "VBOOT_HASH",
	CmdUSBChargeSetMode:        "USB_CHARGE_SET_MODE",
	CmdRTCGetValue:             "RTC_GET_VALUE",
	CmdRTCSetValue:             "RTC_SET_VALUE",
	CmdHostEventGetB:           "HOST_EVENT_GET_B",
	CmdHostEventGetSMIMask:     "HOST_EVENT_GET_SMI_MASK",
	CmdHostEventGetSCIMask:     "HOST_EVENT_GET_SCI_MASK",
	CmdHostEventSetSMIMask:     "HOST_EVENT_SET_SMI_MASK",
	CmdHostEventSetSCIMask:     "HOST_EVENT_SET_SCI_MASK",
	CmdHostEventClear:          "HOST_EVENT_CLEAR",
	CmdHostEventGetWakeMask:    "HOST_EVENT_GET_WAKE_MASK",
	CmdHostEventSetWakeMask:    "HOST_EVENT_SET_WAKE_MASK",
	CmdHostEventClearB:         "HOST_EVENT_CLEAR_B",
	CmdBatteryCutOff:           "BATTERY_CUT_OFF",
	CmdI2CPassthru:             "I2C_PASSTHRU",
	CmdChargeState:             "CHARGE_STATE",
	CmdOverrideChargerLimit:    "OVERRIDE_DEDICATED_CHARGER_LIMIT",
	CmdHostEvent:               "HOST_EVENT",
	CmdDeviceEvent:             "DEVICE_EVENT",
	CmdRebootEC:                "REBOOT_EC",
	CmdUSBPDControl:            "USB_PD_CONTROL",
	CmdUSBPDPorts:              "USB_PD_PORTS",
	CmdUSBPDPowerInfo:          "USB_PD_POWER_INFO",
	CmdUSBPDGetAltMode:         "USB_PD_GET_AMODE",
	CmdEFSVerify:               "EFS_VERIFY",
	CmdGetCrosBoardInfo:        "GET_CROS_BOARD_INFO",
	CmdSetCrosBoardInfo:        "SET_CROS_BOARD_INFO",
	CmdGetUptimeInfo:           "GET_UPTIME_INFO",
}

func (c Cmd) String() string {
	if n, ok := cmdNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CMD(%#04x)", uint16(c))
}

// passthruOffset separates the command spaces of chained devices (PD
// chips behind the EC).
const passthruOffset = 0x4000

// Result is the status an EC returns for a host command.
type Result uint16

// EC result codes.
const (
	ResSuccess          Result = 0
	ResInvalidCommand   Result = 1
	ResError            Result = 2
	ResInvalidParam     Result = 3
	ResAccessDenied     Result = 4
	ResInvalidResponse  Result = 5
	ResInvalidVersion   Result = 6
	ResInvalidChecksum  Result = 7
	ResInProgress       Result = 8
	ResUnavailable      Result = 9
	ResTimeout          Result = 10
	ResOverflow         Result = 11
	ResInvalidHeader    Result = 12
	ResRequestTruncated Result = 13
	ResResponseTooBig   Result = 14
	ResBusError         Result = 15
	ResBusy             Result = 16
)

var resultNames = [...]string{
	"SUCCESS", "INVALID_COMMAND", "ERROR", "INVALID_PARAM", "ACCESS_DENIED",
	"INVALID_RESPONSE", "INVALID_VERSION", "INVALID_CHECKSUM", "IN_PROGRESS",
	"UNAVAILABLE", "TIMEOUT", "OVERFLOW", "INVALID_HEADER", "REQUEST_TRUNCATED",
	"RESPONSE_TOO_BIG", "BUS_ERROR", "BUSY",
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("RESULT(%d)", uint16(r))
}

// Request is one host command. It is built fresh for every call.
type Request struct {
	Command Cmd
	Version uint8
	// Device selects a chained device; 0 is the EC itself.
	Device uint8
	Data   []byte
}

// Code returns the command code as sent on the wire.
func (r *Request) Code() uint16 {
	return uint16(r.Command) + passthruOffset*uint16(r.Device)
}

// Image identifies the EC firmware copy that is running.
type Image uint32

// EC images.
const (
	ImageUnknown Image = iota
	ImageRO
	ImageRW
)

func (i Image) String() string {
	switch i {
	case ImageRO:
		return "RO"
	case ImageRW:
		return "RW"
	}
	return "unknown"
}

// Feature is a bit of the GET_FEATURES response.
type Feature uint

// Features the host cares about.
const (
	FeatureLimited          Feature = 0
	FeatureFlash            Feature = 1
	FeaturePWMFan           Feature = 2
	FeaturePWMKeyboard      Feature = 3
	FeatureHostEvents       Feature = 13
	FeatureUSBPD            Feature = 22
	FeatureRTC              Feature = 27
	FeatureRWSig            Feature = 30
	FeatureDeviceEvent      Feature = 31
	FeatureUnifiedWakeMasks Feature = 32
	FeatureHostEvent64      Feature = 33
	FeatureEFS2             Feature = 38
	featureWords                    = 2
)

// Flash regions known to FLASH_REGION_INFO.
type FlashRegionID uint32

// Flash region IDs.
const (
	FlashRegionRO FlashRegionID = iota
	// FlashRegionRW is the region holding the RW image that is updated.
	FlashRegionRW
	FlashRegionWPRO
	FlashRegionUpdate
)

// VbootHash commands, types, status and offsets.
const (
	HashGet    = 0
	HashAbort  = 1
	HashStart  = 2
	HashRecalc = 3

	HashTypeSHA256 = 0

	// HashOffsetRO and HashOffsetRW select the image instead of an offset.
	HashOffsetRO uint32 = 0xfffffffe
	HashOffsetRW uint32 = 0xfffffffd
)

// HashStatus is the state of the EC's hash engine.
type HashStatus uint8

// Hash engine states.
const (
	HashStatusNone HashStatus = 0
	HashStatusDone HashStatus = 1
	HashStatusBusy HashStatus = 2
)

func (s HashStatus) String() string {
	switch s {
	case HashStatusNone:
		return "none"
	case HashStatusDone:
		return "done"
	case HashStatusBusy:
		return "busy"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// RebootCmd is the action of a REBOOT_EC request.
type RebootCmd uint8

// Reboot actions.
const (
	RebootCancel              RebootCmd = 0
	RebootJumpRO              RebootCmd = 1
	RebootJumpRW              RebootCmd = 2
	RebootCold                RebootCmd = 4
	RebootDisableJump         RebootCmd = 5
	RebootHibernate           RebootCmd = 6
	RebootHibernateClearAPOff RebootCmd = 7
	RebootColdAPOff           RebootCmd = 8
)

// Reboot flags.
const (
	RebootFlagOnAPShutdown uint8 = 1 << 1
	RebootFlagSwitchRWSlot uint8 = 1 << 2
)

func (c RebootCmd) String() string {
	switch c {
	case RebootCancel:
		return "cancel"
	case RebootJumpRO:
		return "jump-ro"
	case RebootJumpRW:
		return "jump-rw"
	case RebootCold:
		return "cold"
	case RebootDisableJump:
		return "disable-jump"
	case RebootHibernate:
		return "hibernate"
	case RebootHibernateClearAPOff:
		return "hibernate-clear-ap-off"
	case RebootColdAPOff:
		return "cold-ap-off"
	}
	return fmt.Sprintf("reboot(%d)", uint8(c))
}

// CBITag names a CrOS Board Info field.
type CBITag uint32

// CBI tags.
const (
	CBITagBoardVersion CBITag = 0
	CBITagOEMID        CBITag = 1
	CBITagSKUID        CBITag = 2
	CBITagDRAMPartNum  CBITag = 3
	CBITagOEMName      CBITag = 4
	CBITagModelID      CBITag = 5
	CBITagFWConfig     CBITag = 6
	CBITagPCBSupplier  CBITag = 7
	CBITagSSFC         CBITag = 8
	CBITagReworkID     CBITag = 9
)

// Protocol limits.
const (
	// ProtoVersion3 is the struct_version of protocol v3 packets.
	ProtoVersion3 = 3
	// LegacyParamSize is the parameter buffer of pre-v3 hosts; used when
	// the EC cannot report its packet sizes.
	LegacyParamSize = 0xfc
	// FlashWriteV0Size is the fixed data size of FLASH_WRITE version 0.
	FlashWriteV0Size = 64
	// VbNvBlockSize is the size of the vboot nonvolatile context.
	VbNvBlockSize = 16
	// helloMagic is added by the EC to the HELLO input.
	helloMagic = 0x01020304
)
