// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecsim

import (
	"github.com/linuxboot/chromeec/pkg/ec"
)

func (s *EC) pd(req *ec.Request) ([]byte, ec.Result) {
	switch req.Command {
	case ec.CmdUSBPDPowerInfo:
		var p ec.USBPDPowerInfoParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Port != ec.PDPowerChargingPort && p.Port >= s.PDPorts {
			return nil, ec.ResInvalidParam
		}
		return reply(&s.Charger)

	case ec.CmdOverrideChargerLimit:
		var p ec.ChargerLimitParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		s.ChargerLimit = p
		return nil, ec.ResSuccess

	case ec.CmdUSBPDControl:
		var p ec.USBPDControlParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Port >= s.PDPorts || p.Role > ec.PDRoleFreeze {
			return nil, ec.ResInvalidParam
		}
		if p.Role != ec.PDRoleNoChange {
			s.PDRoles[p.Port] = p.Role
		}
		return reply(&ec.USBPDControl{Enabled: 1, Role: uint8(s.PDRoles[p.Port])})

	case ec.CmdUSBPDGetAltMode:
		var p ec.AltModeParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Port >= s.PDPorts {
			return nil, ec.ResInvalidParam
		}
		var r ec.AltMode
		if modes := s.AltModes[p.Port]; int(p.SVIDIndex) < len(modes) {
			r.SVID = modes[p.SVIDIndex]
			r.OPos = 1
		}
		return reply(&r)

	case ec.CmdChargeState:
		var p ec.ChargeStateParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if p.Cmd != ec.ChargeStateCmdGetParam || p.Param != ec.ChargeStateParamLimitPower {
			return nil, ec.ResInvalidParam
		}
		var r ec.ChargeStateParam
		if s.LimitPower {
			r.Value = 1
		}
		return reply(&r)
	}
	return nil, ec.ResInvalidCommand
}

func (s *EC) nextEvent() ([]byte, ec.Result) {
	if len(s.MKBP) == 0 {
		return nil, ec.ResUnavailable
	}
	e := s.MKBP[0]
	s.MKBP = s.MKBP[1:]
	t := uint8(e.Type)
	if len(s.MKBP) > 0 {
		t |= 0x80
	}
	return append([]byte{t}, e.Data...), ec.ResSuccess
}

// i2c serves I2C_PASSTHRU against the register files in s.I2C.
func (s *EC) i2c(req *ec.Request) ([]byte, ec.Result) {
	var p ec.I2CPassthruParams
	if res := decode(req, &p); res != ec.ResSuccess {
		return nil, res
	}
	if p.Port != 0 {
		return nil, ec.ResInvalidParam
	}
	msgs := make([]ec.I2CPassthruMsg, p.NumMsgs)
	off := ec.Size(&p)
	for i := range msgs {
		if err := ec.Unmarshal(req.Data[off:], &msgs[i]); err != nil {
			return nil, ec.ResInvalidParam
		}
		off += ec.Size(&msgs[i])
	}
	data := req.Data[off:]

	r := ec.I2CPassthruResponse{}
	var out []byte
	var reg int
	for _, m := range msgs {
		regs, ok := s.I2C[uint8(m.AddrFlags&0x7f)]
		if !ok {
			r.Status = ec.I2CStatusNAK
			break
		}
		n := int(m.Len)
		if m.AddrFlags&ec.I2CFlagRead != 0 {
			for i := 0; i < n; i++ {
				out = append(out, regs[(reg+i)%len(regs)])
			}
			reg += n
			r.NumMsgs++
			continue
		}
		if n < 1 || n > len(data) {
			return nil, ec.ResInvalidParam
		}
		reg = int(data[0])
		for _, b := range data[1:n] {
			regs[reg%len(regs)] = b
			reg++
		}
		data = data[n:]
		r.NumMsgs++
	}
	if r.Status != 0 {
		out = nil
	}
	return append(ec.Marshal(&r), out...), ec.ResSuccess
}
