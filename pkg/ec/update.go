// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/linuxboot/chromeec/pkg/elog"
	"github.com/linuxboot/chromeec/pkg/log"
)

// Default names of the EC RW image and its SHA-256 in the file store.
const (
	DefaultImageName = "ecrw"
	DefaultHashName  = "ecrw.hash"
)

// UpdateOutcome is how a software sync ended.
type UpdateOutcome int

// Software sync outcomes.
const (
	// UpdateSkipped means no sync was attempted: the system is resuming
	// or no expected hash is configured.
	UpdateSkipped UpdateOutcome = iota
	// UpdateUpToDate means the EC already runs the expected RW image.
	UpdateUpToDate
	// UpdateUpdated means the RW image was rewritten and verified.
	UpdateUpdated
	// UpdateRebootToRO means the EC was told to reboot into RO so RW can
	// be rewritten on the next boot. The caller must stop booting.
	UpdateRebootToRO
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateSkipped:
		return "skipped"
	case UpdateUpToDate:
		return "up to date"
	case UpdateUpdated:
		return "updated"
	case UpdateRebootToRO:
		return "reboot to RO"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// UpdateOptions controls UpdateRW.
type UpdateOptions struct {
	// Resume is set when waking from a sleep state; nothing is done then.
	Resume bool
	// ImageName and HashName override DefaultImageName and
	// DefaultHashName.
	ImageName string
	HashName  string
}

func (o *UpdateOptions) names() (image, hash string) {
	image, hash = o.ImageName, o.HashName
	if image == "" {
		image = DefaultImageName
	}
	if hash == "" {
		hash = DefaultHashName
	}
	return image, hash
}

// UpdateRW brings the EC RW image in line with the one in store.
//
// The EC hash of its RW image is compared to the expected hash. If they
// differ and the EC runs RO, the whole RW region is erased, the new image
// written, and the hash checked again. If the EC runs RW it is rebooted
// into RO and UpdateRW returns UpdateRebootToRO with ErrRebootToRO.
func (c *Channel) UpdateRW(store FileStore, opts UpdateOptions) (UpdateOutcome, error) {
	if opts.Resume {
		log.Debugf("EC sw sync: resuming, skipped")
		return UpdateSkipped, nil
	}
	imageName, hashName := opts.names()

	want, err := store.Lookup(hashName)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("EC sw sync: no %s, no EC RW update configured", hashName)
		return UpdateSkipped, nil
	}
	if err != nil {
		return c.updateFailed(fmt.Errorf("looking up %s: %w", hashName, err))
	}
	if len(want) < SHA256Size {
		return c.updateFailed(fmt.Errorf("%s holds %d bytes, want %d", hashName, len(want), SHA256Size))
	}
	want = want[:SHA256Size]
	log.Debugf("EC sw sync: expected hash %x", want)

	h, err := c.ReadHash()
	if err != nil {
		return c.updateFailed(fmt.Errorf("reading current EC RW hash: %w", err))
	}
	if int(h.DigestSize) != SHA256Size {
		return c.updateFailed(fmt.Errorf("EC hash is %d bytes, want %d: %w", h.DigestSize, SHA256Size, ErrBadPacket))
	}
	log.Debugf("EC sw sync: current hash %x", h.Sum())
	if bytes.Equal(h.Sum(), want) {
		log.Infof("EC sw sync: EC RW is up to date")
		return UpdateUpToDate, nil
	}

	if c.CurrentImage() == ImageRW {
		log.Infof("EC sw sync: EC RW needs an update but is running, rebooting to RO")
		c.logEvent(elog.TypeECUpdate, uint32(UpdateRebootToRO), UpdateRebootToRO.String())
		if err := c.Reboot(0, RebootCold, 0); err != nil {
			log.Errorf("EC sw sync: reboot to RO: %v", err)
		}
		return UpdateRebootToRO, ErrRebootToRO
	}

	log.Infof("EC sw sync: updating EC RW")
	image, err := store.Lookup(imageName)
	if err != nil {
		return c.updateFailed(fmt.Errorf("looking up %s: %w", imageName, err))
	}
	if err := c.UpdateRWRegion(image); err != nil {
		return c.updateFailed(fmt.Errorf("updating EC RW: %w", err))
	}

	h, err = c.ReadHash()
	if err != nil {
		return c.updateFailed(fmt.Errorf("reading new EC RW hash: %w", err))
	}
	if !bytes.Equal(h.Sum(), want) {
		log.Errorf("EC sw sync: expected hash %x, EC hash %x", want, h.Sum())
		return c.updateFailed(ErrHashMismatch)
	}
	log.Infof("EC sw sync: EC RW updated, hashes match")
	c.logEvent(elog.TypeECUpdate, uint32(UpdateUpdated), UpdateUpdated.String())
	return UpdateUpdated, nil
}

func (c *Channel) updateFailed(err error) (UpdateOutcome, error) {
	c.logEvent(elog.TypeECUpdate, uint32(Status(err)), err.Error())
	return UpdateSkipped, err
}
