// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecsim

import "github.com/linuxboot/chromeec/pkg/ec"

// maskSlot returns where a mask is stored. Legacy firmware has a single
// wake mask.
func (s *EC) maskSlot(k ec.MaskKind) ec.MaskKind {
	if s.UHEPI {
		return k
	}
	switch k {
	case ec.MaskLazyWakeS0ix, ec.MaskLazyWakeS3, ec.MaskLazyWakeS5:
		return ec.MaskActiveWake
	}
	return k
}

func (s *EC) getMask(k ec.MaskKind) uint64 {
	switch k {
	case ec.MaskMain:
		return s.Events
	case ec.MaskB:
		return s.EventsB
	}
	return s.masks[s.maskSlot(k)]
}

func (s *EC) clearMask(k ec.MaskKind, v uint64) {
	switch k {
	case ec.MaskMain:
		s.Events &^= v
	case ec.MaskB:
		s.EventsB &^= v
	default:
		s.masks[s.maskSlot(k)] &^= v
	}
}

func (s *EC) hostEvent(req *ec.Request) ([]byte, ec.Result) {
	legacyGet := func(k ec.MaskKind) ([]byte, ec.Result) {
		return reply(&ec.HostEventMask{Mask: uint32(s.getMask(k))})
	}
	legacyArg := func() (uint64, ec.Result) {
		var p ec.HostEventMask
		res := decode(req, &p)
		return uint64(p.Mask), res
	}

	switch req.Command {
	case ec.CmdHostEventGetB:
		return legacyGet(ec.MaskB)
	case ec.CmdHostEventGetSCIMask:
		return legacyGet(ec.MaskSCI)
	case ec.CmdHostEventGetSMIMask:
		return legacyGet(ec.MaskSMI)
	case ec.CmdHostEventGetWakeMask:
		return legacyGet(ec.MaskActiveWake)
	case ec.CmdHostEventClear, ec.CmdHostEventClearB,
		ec.CmdHostEventSetSCIMask, ec.CmdHostEventSetSMIMask, ec.CmdHostEventSetWakeMask:
		v, res := legacyArg()
		if res != ec.ResSuccess {
			return nil, res
		}
		switch req.Command {
		case ec.CmdHostEventClear:
			s.clearMask(ec.MaskMain, v)
		case ec.CmdHostEventClearB:
			s.clearMask(ec.MaskB, v)
		case ec.CmdHostEventSetSCIMask:
			s.masks[ec.MaskSCI] = v
		case ec.CmdHostEventSetSMIMask:
			s.masks[ec.MaskSMI] = v
		case ec.CmdHostEventSetWakeMask:
			s.masks[ec.MaskActiveWake] = v
		}
		return nil, ec.ResSuccess
	}

	var p ec.HostEventParams
	if res := decode(req, &p); res != ec.ResSuccess {
		return nil, res
	}
	if p.MaskType > ec.MaskLazyWakeS5 {
		return nil, ec.ResInvalidParam
	}
	switch p.Action {
	case 0: // get
		return reply(&ec.HostEventResponse{Value: s.getMask(p.MaskType)})
	case 1: // set
		if p.MaskType == ec.MaskMain || p.MaskType == ec.MaskB {
			return nil, ec.ResInvalidParam
		}
		s.masks[p.MaskType] = p.Value
		return nil, ec.ResSuccess
	case 2: // clear
		s.clearMask(p.MaskType, p.Value)
		return nil, ec.ResSuccess
	}
	return nil, ec.ResInvalidParam
}
