// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"fmt"
	"time"

	"github.com/linuxboot/chromeec/pkg/log"
)

// Hash polling parameters.
const (
	HashTimeout   = 2000 * time.Millisecond
	HashPollDelay = 10 * time.Millisecond
)

// SHA256Size is the digest size of EC RW hashes.
const SHA256Size = 32

func (c *Channel) vbootHash(p *VbootHashParams) (*VbootHash, error) {
	var h VbootHash
	if err := c.call(CmdVbootHash, 0, p, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHash returns the EC's hash state without waiting.
func (c *Channel) GetHash() (*VbootHash, error) {
	return c.vbootHash(&VbootHashParams{Cmd: HashGet})
}

// StartHash asks the EC to hash size bytes at offset. offset may be
// HashOffsetRO or HashOffsetRW to hash a whole image.
func (c *Channel) StartHash(offset, size uint32) (*VbootHash, error) {
	return c.vbootHash(&VbootHashParams{
		Cmd:      HashStart,
		HashType: HashTypeSHA256,
		Offset:   offset,
		Size:     size,
	})
}

// AbortHash stops a running hash computation.
func (c *Channel) AbortHash() error {
	_, err := c.vbootHash(&VbootHashParams{Cmd: HashAbort})
	return err
}

// ReadHash waits for the EC's hash of its RW image. If the EC has no hash
// a single recalculation is requested. It polls every HashPollDelay and
// gives up with ErrTimeout after HashTimeout.
func (c *Channel) ReadHash() (*VbootHash, error) {
	start := c.clock.Now()
	recalc := false
	for {
		h, err := c.GetHash()
		if err != nil {
			return nil, fmt.Errorf("reading EC hash: %w", err)
		}
		switch h.Status {
		case HashStatusDone:
			return h, nil
		case HashStatusNone:
			if !recalc {
				log.Debugf("EC: no valid hash (size %d), recalculating", h.Size)
				if _, err := c.vbootHash(&VbootHashParams{
					Cmd:      HashRecalc,
					HashType: HashTypeSHA256,
					Offset:   HashOffsetRW,
				}); err != nil {
					return nil, fmt.Errorf("starting EC hash: %w", err)
				}
				recalc = true
				break
			}
			c.clock.Sleep(HashPollDelay)
		default:
			c.clock.Sleep(HashPollDelay)
		}
		if c.clock.Now().Sub(start) >= HashTimeout {
			return nil, fmt.Errorf("EC hash status %v after %v: %w", h.Status, HashTimeout, ErrTimeout)
		}
	}
}
