// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pd holds the verbs for USB PD, charging and the buses behind
// the EC.
package pd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var (
	_ commands.Command = (*Charger)(nil)
	_ commands.Command = (*Role)(nil)
	_ commands.Command = (*DisplayPort)(nil)
	_ commands.Command = (*I2C)(nil)
	_ commands.Command = (*MKBP)(nil)
)

// Charger shows the active charger, optionally capping a dedicated one.
type Charger struct {
	CurrentLimit uint16 `long:"current-limit" description:"cap a dedicated charger at this many mA"`
	VoltageLimit uint16 `long:"voltage-limit" description:"cap a dedicated charger at this many mV"`
}

// ShortDescription explains what this command does in one line
func (cmd *Charger) ShortDescription() string {
	return "shows the active charger and the power limit request"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Charger) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Charger) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if cmd.CurrentLimit != 0 || cmd.VoltageLimit != 0 {
		if err := ch.OverrideDedicatedChargerLimit(cmd.CurrentLimit, cmd.VoltageLimit); err != nil {
			return err
		}
	}
	info, err := ch.ChargerInfo()
	if err != nil {
		return err
	}
	limit, err := ch.LimitPower()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(commands.Stdout)
	t.AppendRows([]table.Row{
		{"Type", info.Type},
		{"Max power", fmt.Sprintf("%d W", info.MaxWatts())},
		{"Voltage", fmt.Sprintf("%d mV (max %d mV)", info.Meas.VoltageNow, info.Meas.VoltageMax)},
		{"Current", fmt.Sprintf("limit %d mA (max %d mA)", info.Meas.CurrentLim, info.Meas.CurrentMax)},
		{"Limit power", limit},
	})
	t.Render()
	return nil
}

// Role changes the power role of a PD port.
type Role struct{}

// ShortDescription explains what this command does in one line
func (cmd *Role) ShortDescription() string {
	return "sets the power role of a USB PD port"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Role) LongDescription() string {
	return "pdrole PORT ROLE\n\nROLE is one of no-change, toggle-on, toggle-off, sink, source, freeze."
}

// Execute runs the verb.
func (cmd *Role) Execute(args []string) error {
	if err := commands.Args(args, 2, 2); err != nil {
		return err
	}
	port, err := commands.ParseUint(args[0], 8)
	if err != nil {
		return err
	}
	role, err := ec.ParsePDRole(args[1])
	if err != nil {
		return commands.ErrArgs{Err: err}
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	return ch.SetUSBPDRole(uint8(port), role)
}

// DisplayPort waits for a PD port to enter DisplayPort mode.
type DisplayPort struct {
	Timeout time.Duration `long:"timeout" default:"1s" description:"how long to wait"`
}

// ShortDescription explains what this command does in one line
func (cmd *DisplayPort) ShortDescription() string {
	return "waits until a USB-C port carries DisplayPort"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *DisplayPort) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *DisplayPort) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if err := ch.WaitForDisplayPort(cmd.Timeout); err != nil {
		return err
	}
	fmt.Fprintln(commands.Stdout, "DisplayPort ready")
	return nil
}

// I2C reads or writes registers of a device behind the EC.
type I2C struct{}

// ShortDescription explains what this command does in one line
func (cmd *I2C) ShortDescription() string {
	return "reads or writes I2C registers through the EC"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *I2C) LongDescription() string {
	return "i2c read CHIP REG LEN\ni2c write CHIP REG HEX"
}

// Execute runs the verb.
func (cmd *I2C) Execute(args []string) error {
	if err := commands.Args(args, 4, 4); err != nil {
		return err
	}
	chip, err := commands.ParseUint(args[1], 7)
	if err != nil {
		return err
	}
	reg, err := commands.ParseUint(args[2], 8)
	if err != nil {
		return err
	}
	switch args[0] {
	case "read":
		n, err := commands.ParseUint(args[3], 8)
		if err != nil {
			return err
		}
		ch, err := commands.Channel()
		if err != nil {
			return err
		}
		buf := make([]byte, n)
		if err := ch.I2CRead(uint8(chip), uint8(reg), buf); err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "%x\n", buf)
		return nil
	case "write":
		data, err := hex.DecodeString(args[3])
		if err != nil {
			return commands.ErrArgs{Err: err}
		}
		ch, err := commands.Channel()
		if err != nil {
			return err
		}
		return ch.I2CWrite(uint8(chip), uint8(reg), data)
	}
	return commands.ErrArgs{Err: fmt.Errorf("unknown i2c action %q", args[0])}
}

// MKBP drains the EC's MKBP event queue.
type MKBP struct{}

// ShortDescription explains what this command does in one line
func (cmd *MKBP) ShortDescription() string {
	return "prints and removes queued MKBP events"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *MKBP) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *MKBP) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	for {
		ev, err := ch.NextMKBPEvent()
		var re *ec.ResultError
		if errors.As(err, &re) && re.Result == ec.ResUnavailable {
			fmt.Fprintln(commands.Stdout, "no more events")
			return nil
		}
		if err != nil {
			return err
		}
		switch ev.Type {
		case ec.MKBPHostEvent, ec.MKBPHostEvent64:
			fmt.Fprintf(commands.Stdout, "%v: %s\n", ev.Type, commands.FormatMask(ev.HostEvents()))
		default:
			fmt.Fprintf(commands.Stdout, "%v: %x\n", ev.Type, ev.Data)
		}
		if !ev.More {
			return nil
		}
	}
}
