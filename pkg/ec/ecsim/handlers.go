// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecsim

import (
	"github.com/linuxboot/chromeec/pkg/ec"
)

// defaultVersions are the command versions a current EC supports.
var defaultVersions = map[ec.Cmd]uint32{
	ec.CmdProtoVersion:            1 << 0,
	ec.CmdHello:                   1 << 0,
	ec.CmdGetVersion:              1 << 0,
	ec.CmdGetBuildInfo:            1 << 0,
	ec.CmdGetChipInfo:             1 << 0,
	ec.CmdGetBoardVersion:         1 << 0,
	ec.CmdGetCmdVersions:          1<<0 | 1<<1,
	ec.CmdGetProtocolInfo:         1 << 0,
	ec.CmdGetFeatures:             1 << 0,
	ec.CmdGetSKUID:                1 << 0,
	ec.CmdSetSKUID:                1 << 0,
	ec.CmdFlashInfo:               1<<0 | 1<<1,
	ec.CmdFlashRead:               1 << 0,
	ec.CmdFlashWrite:              1<<0 | 1<<1,
	ec.CmdFlashErase:              1 << 0,
	ec.CmdFlashProtect:            1 << 1,
	ec.CmdFlashRegionInfo:         1 << 1,
	ec.CmdVbNvContext:             1 << 1,
	ec.CmdPwmGetKeyboardBacklight: 1 << 0,
	ec.CmdPwmSetKeyboardBacklight: 1 << 0,
	ec.CmdThermalAutoFanCtrl:      1 << 0,
	ec.CmdGetNextEvent:            1 << 0,
	ec.CmdVbootHash:               1 << 0,
	ec.CmdUSBChargeSetMode:        1 << 0,
	ec.CmdRTCGetValue:             1 << 0,
	ec.CmdRTCSetValue:             1 << 0,
	ec.CmdHostEventGetB:           1 << 0,
	ec.CmdHostEventGetSMIMask:     1 << 0,
	ec.CmdHostEventGetSCIMask:     1 << 0,
	ec.CmdHostEventSetSMIMask:     1 << 0,
	ec.CmdHostEventSetSCIMask:     1 << 0,
	ec.CmdHostEventClear:          1 << 0,
	ec.CmdHostEventGetWakeMask:    1 << 0,
	ec.CmdHostEventSetWakeMask:    1 << 0,
	ec.CmdHostEventClearB:         1 << 0,
	ec.CmdBatteryCutOff:           1<<0 | 1<<1,
	ec.CmdI2CPassthru:             1 << 0,
	ec.CmdChargeState:             1 << 0,
	ec.CmdOverrideChargerLimit:    1 << 0,
	ec.CmdHostEvent:               1 << 0,
	ec.CmdDeviceEvent:             1 << 0,
	ec.CmdRebootEC:                1 << 0,
	ec.CmdUSBPDControl:            1 << 0,
	ec.CmdUSBPDPorts:              1 << 0,
	ec.CmdUSBPDPowerInfo:          1 << 0,
	ec.CmdUSBPDGetAltMode:         1 << 0,
	ec.CmdEFSVerify:               1 << 0,
	ec.CmdGetCrosBoardInfo:        1 << 0,
	ec.CmdSetCrosBoardInfo:        1 << 0,
	ec.CmdGetUptimeInfo:           1 << 0,
}

func (s *EC) versions(cmd ec.Cmd) (uint32, bool) {
	if v, ok := s.Versions[cmd]; ok {
		return v, v != 0
	}
	v, ok := defaultVersions[cmd]
	return v, ok
}

// unsupported reports commands this EC does not implement at all.
func (s *EC) unsupported(cmd ec.Cmd) bool {
	switch cmd {
	case ec.CmdHostEvent:
		return !s.UHEPI
	case ec.CmdGetProtocolInfo:
		return s.MaxRequestPacket == 0 || s.MaxResponsePacket == 0
	case ec.CmdEFSVerify:
		return !s.EFS
	}
	_, ok := s.versions(cmd)
	return !ok
}

func decode(req *ec.Request, v interface{}) ec.Result {
	if err := ec.Unmarshal(req.Data, v); err != nil {
		return ec.ResInvalidParam
	}
	return ec.ResSuccess
}

func reply(v interface{}) ([]byte, ec.Result) {
	return ec.Marshal(v), ec.ResSuccess
}

func (s *EC) dispatch(req *ec.Request) ([]byte, ec.Result) {
	if s.unsupported(req.Command) {
		return nil, ec.ResInvalidCommand
	}
	if v, _ := s.versions(req.Command); v&(1<<req.Version) == 0 {
		return nil, ec.ResInvalidVersion
	}

	switch req.Command {
	case ec.CmdHello:
		var p ec.HelloParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if s.helloFails > 0 {
			s.helloFails--
			return nil, ec.ResBusy
		}
		return reply(&ec.HelloResponse{OutData: p.InData + 0x01020304})

	case ec.CmdProtoVersion:
		return reply(&ec.ProtoVersionResponse{Version: ec.ProtoVersion3})

	case ec.CmdGetVersion:
		var r ec.VersionResponse
		ec.PutCString(r.VersionRO[:], s.VersionRO)
		ec.PutCString(r.VersionRW[:], s.VersionRW)
		r.CurrentImage = s.Image
		return reply(&r)

	case ec.CmdGetBuildInfo:
		return append([]byte(s.Build), 0), ec.ResSuccess

	case ec.CmdGetChipInfo:
		var r ec.ChipInfo
		ec.PutCString(r.Vendor[:], s.Chip.Vendor)
		ec.PutCString(r.Name[:], s.Chip.Name)
		ec.PutCString(r.Revision[:], s.Chip.Revision)
		return reply(&r)

	case ec.CmdGetBoardVersion:
		return reply(&ec.BoardVersionResponse{BoardVersion: s.BoardVersion})

	case ec.CmdGetCmdVersions:
		var p ec.CmdVersionsParams
		if req.Version == 0 {
			// Version 0 carries an 8-bit command.
			if len(req.Data) < 1 {
				return nil, ec.ResInvalidParam
			}
			p.Cmd = uint16(req.Data[0])
		} else if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		cmd := ec.Cmd(p.Cmd)
		if s.unsupported(cmd) {
			return nil, ec.ResInvalidParam
		}
		v, _ := s.versions(cmd)
		return reply(&ec.CmdVersionsResponse{VersionMask: v})

	case ec.CmdGetProtocolInfo:
		return reply(&ec.ProtocolInfo{
			ProtocolVersions:      1 << ec.ProtoVersion3,
			MaxRequestPacketSize:  s.MaxRequestPacket,
			MaxResponsePacketSize: s.MaxResponsePacket,
		})

	case ec.CmdGetFeatures:
		var r ec.FeaturesResponse
		fs := s.Features
		if s.UHEPI {
			fs = append(fs[:len(fs):len(fs)], ec.FeatureUnifiedWakeMasks)
		}
		for _, f := range fs {
			r.Flags[f/32] |= 1 << (f % 32)
		}
		return reply(&r)

	case ec.CmdGetSKUID:
		return reply(&ec.SKUID{SKUID: s.SKU})

	case ec.CmdSetSKUID:
		var p ec.SKUID
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		s.SKU = p.SKUID
		return nil, ec.ResSuccess

	case ec.CmdFlashInfo, ec.CmdFlashRead, ec.CmdFlashWrite, ec.CmdFlashErase,
		ec.CmdFlashProtect, ec.CmdFlashRegionInfo:
		return s.flash(req)

	case ec.CmdVbootHash:
		return s.hash(req)

	case ec.CmdVbNvContext:
		var p ec.VbNvContextParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Op == ec.VbNvContextOpWrite {
			s.VbNv = p.Block
			return nil, ec.ResSuccess
		}
		return reply(&ec.VbNvContextResponse{Block: s.VbNv})

	case ec.CmdPwmGetKeyboardBacklight:
		var enabled uint8
		if s.Backlight > 0 {
			enabled = 1
		}
		return reply(&ec.KeyboardBacklight{Percent: s.Backlight, Enabled: enabled})

	case ec.CmdPwmSetKeyboardBacklight:
		var p ec.KeyboardBacklightParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Percent > 100 {
			return nil, ec.ResInvalidParam
		}
		s.Backlight = p.Percent
		return nil, ec.ResSuccess

	case ec.CmdUSBChargeSetMode:
		var p ec.USBChargeModeParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Port >= s.PDPorts {
			return nil, ec.ResInvalidParam
		}
		s.USBCharge[p.Port] = p.ModeInhibit
		return nil, ec.ResSuccess

	case ec.CmdRTCGetValue:
		return reply(&ec.RTC{Time: s.RTC})

	case ec.CmdRTCSetValue:
		var p ec.RTC
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		s.RTC = p.Time
		return nil, ec.ResSuccess

	case ec.CmdHostEvent,
		ec.CmdHostEventGetB, ec.CmdHostEventClearB, ec.CmdHostEventClear,
		ec.CmdHostEventGetSCIMask, ec.CmdHostEventSetSCIMask,
		ec.CmdHostEventGetSMIMask, ec.CmdHostEventSetSMIMask,
		ec.CmdHostEventGetWakeMask, ec.CmdHostEventSetWakeMask:
		return s.hostEvent(req)

	case ec.CmdDeviceEvent:
		var p ec.DeviceEventParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		switch p.Param {
		case ec.DeviceEventGetCurrent:
			cur := s.DeviceEvents
			s.DeviceEvents = 0
			return reply(&ec.DeviceEventResponse{EventMask: cur})
		case ec.DeviceEventGetEnabled:
			return reply(&ec.DeviceEventResponse{EventMask: s.EnabledDeviceEvents})
		case ec.DeviceEventSetEnabled:
			s.EnabledDeviceEvents = p.EventMask
			return reply(&ec.DeviceEventResponse{EventMask: s.EnabledDeviceEvents})
		}
		return nil, ec.ResInvalidParam

	case ec.CmdBatteryCutOff:
		return nil, ec.ResSuccess

	case ec.CmdRebootEC:
		var p ec.RebootParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		return s.reboot(p)

	case ec.CmdUSBPDPorts:
		return reply(&ec.USBPDPorts{NumPorts: s.PDPorts})

	case ec.CmdUSBPDPowerInfo, ec.CmdOverrideChargerLimit, ec.CmdUSBPDControl,
		ec.CmdUSBPDGetAltMode, ec.CmdChargeState:
		return s.pd(req)

	case ec.CmdThermalAutoFanCtrl:
		s.AutoFan = true
		return nil, ec.ResSuccess

	case ec.CmdGetNextEvent:
		return s.nextEvent()

	case ec.CmdI2CPassthru:
		return s.i2c(req)

	case ec.CmdEFSVerify:
		return nil, ec.ResSuccess

	case ec.CmdGetCrosBoardInfo:
		var p ec.CBIGetParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		v, ok := s.CBI[p.Tag]
		if !ok {
			return nil, ec.ResInvalidParam
		}
		return append([]byte(nil), v...), ec.ResSuccess

	case ec.CmdSetCrosBoardInfo:
		var h ec.CBISetHeader
		if res := decode(req, &h); res != ec.ResSuccess {
			return nil, res
		}
		data := req.Data[ec.Size(&h):]
		if uint32(len(data)) != h.Size {
			return nil, ec.ResInvalidParam
		}
		s.CBI[h.Tag] = append([]byte(nil), data...)
		return nil, ec.ResSuccess

	case ec.CmdGetUptimeInfo:
		return reply(&s.Uptime)
	}
	return nil, ec.ResInvalidCommand
}

func (s *EC) reboot(p ec.RebootParams) ([]byte, ec.Result) {
	s.Reboots = append(s.Reboots, p)
	if p.Flags&ec.RebootFlagOnAPShutdown != 0 {
		return nil, ec.ResSuccess
	}
	switch p.Cmd {
	case ec.RebootCancel:
		return nil, ec.ResSuccess
	case ec.RebootJumpRO, ec.RebootCold, ec.RebootColdAPOff:
		s.Image = ec.ImageRO
	case ec.RebootJumpRW:
		s.Image = ec.ImageRW
	case ec.RebootDisableJump, ec.RebootHibernate, ec.RebootHibernateClearAPOff:
	default:
		return nil, ec.ResInvalidParam
	}
	s.helloFails = s.HelloFailsAfterReboot
	return nil, ec.ResSuccess
}
