// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecsim

import (
	"crypto/sha256"

	"github.com/linuxboot/chromeec/pkg/bytes"
	"github.com/linuxboot/chromeec/pkg/ec"
)

func (s *EC) inFlash(off, size uint32) bool {
	r := bytes.Range{Offset: uint64(off), Length: uint64(size)}
	return r.End() <= uint64(len(s.Flash))
}

func (s *EC) region(id ec.FlashRegionID) (ec.FlashRegion, bool) {
	switch id {
	case ec.FlashRegionRO, ec.FlashRegionWPRO:
		return s.RO, true
	case ec.FlashRegionRW, ec.FlashRegionUpdate:
		return s.RW, true
	}
	return ec.FlashRegion{}, false
}

// running reports whether [off, off+size) touches the image the EC runs.
func (s *EC) running(off, size uint32) bool {
	cur := s.RO
	if s.Image == ec.ImageRW {
		cur = s.RW
	}
	a := bytes.Range{Offset: uint64(off), Length: uint64(size)}
	b := bytes.Range{Offset: uint64(cur.Offset), Length: uint64(cur.Size)}
	return a.Intersect(b)
}

func (s *EC) flash(req *ec.Request) ([]byte, ec.Result) {
	switch req.Command {
	case ec.CmdFlashInfo:
		fi := ec.FlashInfo{
			FlashInfoV0: ec.FlashInfoV0{
				FlashSize:        uint32(len(s.Flash)),
				WriteBlockSize:   s.WriteBlockSize,
				EraseBlockSize:   s.EraseBlockSize,
				ProtectBlockSize: s.EraseBlockSize,
			},
			WriteIdealSize: s.WriteBlockSize * 16,
		}
		if req.Version == 0 {
			return reply(&fi.FlashInfoV0)
		}
		return reply(&fi)

	case ec.CmdFlashRegionInfo:
		var p ec.FlashRegionInfoParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		r, ok := s.region(p.Region)
		if !ok {
			return nil, ec.ResInvalidParam
		}
		return reply(&r)

	case ec.CmdFlashProtect:
		var p ec.FlashProtectParams
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		s.FlashProtect = s.FlashProtect&^p.Mask | p.Flags&p.Mask
		return reply(&ec.FlashProtect{
			Flags:         s.FlashProtect,
			ValidFlags:    ec.FlashProtectROAtBoot | ec.FlashProtectRONow | ec.FlashProtectAllNow | ec.FlashProtectGPIO,
			WritableFlags: ec.FlashProtectROAtBoot,
		})

	case ec.CmdFlashRead:
		var p ec.FlashRange
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if !s.inFlash(p.Offset, p.Size) {
			return nil, ec.ResInvalidParam
		}
		return append([]byte(nil), s.Flash[p.Offset:p.Offset+p.Size]...), ec.ResSuccess

	case ec.CmdFlashErase:
		var p ec.FlashRange
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		if !s.inFlash(p.Offset, p.Size) || p.Offset%s.EraseBlockSize != 0 || p.Size%s.EraseBlockSize != 0 {
			return nil, ec.ResInvalidParam
		}
		if s.running(p.Offset, p.Size) {
			return nil, ec.ResAccessDenied
		}
		bytes.Fill(s.Flash[p.Offset:p.Offset+p.Size], bytes.Erased)
		s.invalidateHash()
		return nil, ec.ResSuccess

	case ec.CmdFlashWrite:
		var p ec.FlashRange
		if res := decode(req, &p); res != ec.ResSuccess {
			return nil, res
		}
		data := req.Data[ec.Size(&p):]
		if req.Version == 0 && (p.Size > ec.FlashWriteV0Size || len(data) != ec.FlashWriteV0Size) {
			return nil, ec.ResInvalidParam
		}
		if uint32(len(data)) < p.Size || p.Size%s.WriteBlockSize != 0 || p.Offset%s.WriteBlockSize != 0 {
			return nil, ec.ResInvalidParam
		}
		if !s.inFlash(p.Offset, p.Size) {
			return nil, ec.ResInvalidParam
		}
		if s.running(p.Offset, p.Size) {
			return nil, ec.ResAccessDenied
		}
		// NOR flash only clears bits.
		for i, b := range data[:p.Size] {
			s.Flash[p.Offset+uint32(i)] &= b
		}
		s.invalidateHash()
		return nil, ec.ResSuccess
	}
	return nil, ec.ResInvalidCommand
}

func (s *EC) invalidateHash() {
	if s.HashState == ec.HashStatusDone {
		s.HashState = ec.HashStatusNone
		s.digest = nil
	}
}

// imageBytes returns the image in r up to its last programmed byte.
func (s *EC) imageBytes(r ec.FlashRegion) []byte {
	b := s.Flash[r.Offset : r.Offset+r.Size]
	end := len(b)
	for end > 0 && b[end-1] == bytes.Erased {
		end--
	}
	return b[:end]
}

// ImageHash returns what the hash engine reports for the RW image.
func (s *EC) ImageHash() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := sha256.Sum256(s.imageBytes(s.RW))
	return sum[:]
}

// RWImage returns the programmed part of the RW region.
func (s *EC) RWImage() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.imageBytes(s.RW)...)
}

func (s *EC) startHash(offset, size uint32) ec.Result {
	var data []byte
	switch offset {
	case ec.HashOffsetRW:
		data = s.imageBytes(s.RW)
	case ec.HashOffsetRO:
		data = s.imageBytes(s.RO)
	default:
		if !s.inFlash(offset, size) {
			return ec.ResInvalidParam
		}
		data = s.Flash[offset : offset+size]
	}
	s.hashOffset, s.hashSize = offset, uint32(len(data))
	if s.HashStickyNone {
		s.HashState = ec.HashStatusNone
		return ec.ResSuccess
	}
	sum := sha256.Sum256(data)
	s.digest = sum[:]
	s.HashState = ec.HashStatusBusy
	s.hashBusyLeft = s.HashBusyPolls
	return ec.ResSuccess
}

func (s *EC) hashResponse() *ec.VbootHash {
	h := &ec.VbootHash{
		Status:   s.HashState,
		HashType: ec.HashTypeSHA256,
		Offset:   s.hashOffset,
		Size:     s.hashSize,
	}
	if s.HashState == ec.HashStatusDone {
		h.DigestSize = uint8(copy(h.Digest[:], s.digest))
	}
	return h
}

func (s *EC) hash(req *ec.Request) ([]byte, ec.Result) {
	var p ec.VbootHashParams
	if res := decode(req, &p); res != ec.ResSuccess {
		return nil, res
	}
	switch p.Cmd {
	case ec.HashGet:
		if s.HashState == ec.HashStatusBusy {
			if s.hashBusyLeft > 0 {
				s.hashBusyLeft--
			} else {
				s.HashState = ec.HashStatusDone
				if s.digest == nil {
					sum := sha256.Sum256(s.imageBytes(s.RW))
					s.digest = sum[:]
				}
			}
		}
		return reply(s.hashResponse())
	case ec.HashAbort:
		s.HashState = ec.HashStatusNone
		s.digest = nil
		return reply(s.hashResponse())
	case ec.HashStart, ec.HashRecalc:
		if p.HashType != ec.HashTypeSHA256 || p.NonceSize != 0 {
			return nil, ec.ResInvalidParam
		}
		if res := s.startHash(p.Offset, p.Size); res != ec.ResSuccess {
			return nil, res
		}
		return reply(s.hashResponse())
	}
	return nil, ec.ResInvalidParam
}

// SetHashBusy makes the hash engine report busy for the next polls GETs
// before it reports the RW image hash.
func (s *EC) SetHashBusy(polls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HashState = ec.HashStatusBusy
	s.hashBusyLeft = polls
	s.digest = nil
	s.hashOffset = ec.HashOffsetRW
}
