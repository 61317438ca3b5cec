// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board holds the verbs for board level EC services: CBI, RTC,
// keyboard backlight and POST codes, fans, USB charging, battery cutoff
// and vboot context.
package board

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var (
	_ commands.Command = (*CBI)(nil)
	_ commands.Command = (*RTC)(nil)
	_ commands.Command = (*Backlight)(nil)
	_ commands.Command = (*USBCharge)(nil)
	_ commands.Command = (*Cutoff)(nil)
	_ commands.Command = (*VbNv)(nil)
	_ commands.Command = (*EFS)(nil)
	_ commands.Command = (*Post)(nil)
	_ commands.Command = (*AutoFan)(nil)
)

var cbiTags = map[string]struct {
	tag ec.CBITag
	str bool
}{
	"board-version": {ec.CBITagBoardVersion, false},
	"oem-id":        {ec.CBITagOEMID, false},
	"sku-id":        {ec.CBITagSKUID, false},
	"dram-part-num": {ec.CBITagDRAMPartNum, true},
	"oem-name":      {ec.CBITagOEMName, true},
	"model-id":      {ec.CBITagModelID, false},
	"fw-config":     {ec.CBITagFWConfig, false},
	"pcb-supplier":  {ec.CBITagPCBSupplier, false},
	"ssfc":          {ec.CBITagSSFC, false},
	"rework-id":     {ec.CBITagReworkID, false},
}

// cbiStringMax bounds CBI strings.
const cbiStringMax = 32

// CBI reads and writes CrOS Board Info.
type CBI struct{}

// ShortDescription explains what this command does in one line
func (cmd *CBI) ShortDescription() string {
	return "gets or sets CrOS Board Info fields"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *CBI) LongDescription() string {
	return `cbi get FIELD
cbi set FIELD VALUE

FIELD is one of board-version, oem-id, sku-id, dram-part-num, oem-name,
model-id, fw-config, pcb-supplier, ssfc, rework-id.`
}

// Execute runs the verb.
func (cmd *CBI) Execute(args []string) error {
	if err := commands.Args(args, 2, 3); err != nil {
		return err
	}
	f, ok := cbiTags[args[1]]
	if !ok {
		return commands.ErrArgs{Err: fmt.Errorf("unknown CBI field %q", args[1])}
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	switch args[0] {
	case "get":
		if f.str {
			s, err := ch.CBIString(f.tag, cbiStringMax)
			if err != nil {
				return err
			}
			fmt.Fprintf(commands.Stdout, "%s: %s\n", args[1], s)
			return nil
		}
		v, err := ch.CBIUint32(f.tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "%s: %d (%#x)\n", args[1], v, v)
		return nil
	case "set":
		if err := commands.Args(args, 3, 3); err != nil {
			return err
		}
		if f.str {
			return ch.SetCBI(f.tag, append([]byte(args[2]), 0))
		}
		v, err := commands.ParseUint(args[2], 32)
		if err != nil {
			return err
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v))
		return ch.SetCBI(f.tag, b)
	}
	return commands.ErrArgs{Err: fmt.Errorf("unknown cbi action %q", args[0])}
}

// RTC reads or sets the EC real-time clock.
type RTC struct{}

// ShortDescription explains what this command does in one line
func (cmd *RTC) ShortDescription() string {
	return "gets or sets the EC real-time clock"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *RTC) LongDescription() string {
	return "rtc\nrtc set now|UNIX_SECONDS"
}

// Execute runs the verb.
func (cmd *RTC) Execute(args []string) error {
	if err := commands.Args(args, 0, 2); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		t, err := ch.RTC()
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "%d (%s)\n", t.Unix(), t.Format(time.RFC3339))
		return nil
	}
	if args[0] != "set" || len(args) != 2 {
		return commands.ErrArgs{Err: fmt.Errorf("want: rtc set now|UNIX_SECONDS")}
	}
	t := time.Now()
	if args[1] != "now" {
		v, err := commands.ParseUint(args[1], 32)
		if err != nil {
			return err
		}
		t = time.Unix(int64(v), 0)
	}
	return ch.SetRTC(t)
}

// Backlight reads or sets the keyboard backlight.
type Backlight struct{}

// ShortDescription explains what this command does in one line
func (cmd *Backlight) ShortDescription() string {
	return "gets or sets the keyboard backlight percentage"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Backlight) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Backlight) Execute(args []string) error {
	if err := commands.Args(args, 0, 1); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p < 0 {
			return commands.ErrArgs{Err: fmt.Errorf("bad percentage %q", args[0])}
		}
		return ch.SetKeyboardBacklight(p)
	}
	p, enabled, err := ch.KeyboardBacklight()
	if err != nil {
		return err
	}
	fmt.Fprintf(commands.Stdout, "%d%% (enabled: %v)\n", p, enabled)
	return nil
}

var chargeModes = map[string]ec.USBChargeMode{
	"disabled":  ec.USBChargeModeDisabled,
	"sdp2":      ec.USBChargeModeSDP2,
	"cdp":       ec.USBChargeModeCDP,
	"dcp-short": ec.USBChargeModeDCPShort,
	"enabled":   ec.USBChargeModeEnabled,
	"default":   ec.USBChargeModeDefault,
}

// USBCharge sets the charging mode of a USB port.
type USBCharge struct {
	Inhibit bool `long:"inhibit" description:"inhibit charging in suspend"`
}

// ShortDescription explains what this command does in one line
func (cmd *USBCharge) ShortDescription() string {
	return "sets the charging mode of a USB port"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *USBCharge) LongDescription() string {
	return "usbcharge PORT MODE\n\nMODE is one of disabled, sdp2, cdp, dcp-short, enabled, default."
}

// Execute runs the verb.
func (cmd *USBCharge) Execute(args []string) error {
	if err := commands.Args(args, 2, 2); err != nil {
		return err
	}
	port, err := commands.ParseUint(args[0], 8)
	if err != nil {
		return err
	}
	mode, ok := chargeModes[args[1]]
	if !ok {
		return commands.ErrArgs{Err: fmt.Errorf("unknown charge mode %q", args[1])}
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	return ch.SetUSBChargeMode(uint8(port), mode, cmd.Inhibit)
}

// Cutoff disconnects the battery.
type Cutoff struct {
	AtShutdown bool `long:"at-shutdown" description:"cut off once the AP shuts down"`
}

// ShortDescription explains what this command does in one line
func (cmd *Cutoff) ShortDescription() string {
	return "cuts off the battery"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Cutoff) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Cutoff) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if err := ch.BatteryCutoff(cmd.AtShutdown); err != nil {
		return err
	}
	fmt.Fprintln(commands.Stdout, "battery cutoff requested")
	return nil
}

// VbNv reads or writes the vboot nonvolatile context.
type VbNv struct{}

// ShortDescription explains what this command does in one line
func (cmd *VbNv) ShortDescription() string {
	return "reads or writes the vboot context block"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *VbNv) LongDescription() string {
	return "vbnv\nvbnv write HEX"
}

// Execute runs the verb.
func (cmd *VbNv) Execute(args []string) error {
	if err := commands.Args(args, 0, 2); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		b, err := ch.ReadVbootContext()
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "%x\n", b)
		return nil
	}
	if args[0] != "write" || len(args) != 2 {
		return commands.ErrArgs{Err: fmt.Errorf("want: vbnv write HEX")}
	}
	b, err := hex.DecodeString(args[1])
	if err != nil {
		return commands.ErrArgs{Err: err}
	}
	return ch.WriteVbootContext(b)
}

// EFS asks the EC to verify an image.
type EFS struct{}

// ShortDescription explains what this command does in one line
func (cmd *EFS) ShortDescription() string {
	return "asks the EC to verify its RO or RW image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *EFS) LongDescription() string {
	return "efs ro|rw"
}

// Execute runs the verb.
func (cmd *EFS) Execute(args []string) error {
	if err := commands.Args(args, 1, 1); err != nil {
		return err
	}
	region := ec.FlashRegionRW
	switch args[0] {
	case "ro":
		region = ec.FlashRegionRO
	case "rw":
	default:
		return commands.ErrArgs{Err: fmt.Errorf("unknown region %q", args[0])}
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if err := ch.EFSVerify(region); err != nil {
		return err
	}
	fmt.Fprintf(commands.Stdout, "%s verified\n", args[0])
	return nil
}

// Post shows a POST code on the keyboard backlight.
type Post struct{}

// ShortDescription explains what this command does in one line
func (cmd *Post) ShortDescription() string {
	return "shows a POST code on the keyboard backlight"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Post) LongDescription() string {
	return "post CODE"
}

// Execute runs the verb.
func (cmd *Post) Execute(args []string) error {
	if err := commands.Args(args, 1, 1); err != nil {
		return err
	}
	code, err := commands.ParseUint(args[0], 8)
	if err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	return ch.Post(uint8(code))
}

// AutoFan hands fan control back to the EC.
type AutoFan struct{}

// ShortDescription explains what this command does in one line
func (cmd *AutoFan) ShortDescription() string {
	return "returns the fans to automatic EC control"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *AutoFan) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *AutoFan) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if err := ch.ThermalAutoFanCtrl(); err != nil {
		return err
	}
	fmt.Fprintln(commands.Stdout, "automatic fan control enabled")
	return nil
}
