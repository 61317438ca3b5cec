// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package info holds the verbs that identify the EC.
package info

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var (
	_ commands.Command = (*Version)(nil)
	_ commands.Command = (*Hello)(nil)
	_ commands.Command = (*Info)(nil)
)

// Version prints the firmware versions the way ectool does.
type Version struct{}

// ShortDescription explains what this command does in one line
func (cmd *Version) ShortDescription() string {
	return "prints EC firmware versions"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Version) LongDescription() string {
	return "Prints the RO and RW version strings, the running copy and the build info."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
func (cmd *Version) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	v, err := ch.Version()
	if err != nil {
		return fmt.Errorf("unable to get EC version: %w", err)
	}
	build, err := ch.BuildInfo()
	if err != nil {
		return fmt.Errorf("unable to get EC build info: %w", err)
	}
	fmt.Fprintf(commands.Stdout, "RO version:    %s\n", v.RO)
	fmt.Fprintf(commands.Stdout, "RW version:    %s\n", v.RW)
	fmt.Fprintf(commands.Stdout, "Firmware copy: %s\n", v.Current)
	fmt.Fprintf(commands.Stdout, "Build info:    %s\n", build)
	return nil
}

// Hello checks that the EC answers.
type Hello struct{}

// ShortDescription explains what this command does in one line
func (cmd *Hello) ShortDescription() string {
	return "checks the EC is alive"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Hello) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Hello) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if err := ch.Hello(); err != nil {
		return err
	}
	fmt.Fprintln(commands.Stdout, "EC says hello!")
	return nil
}

// Info tabulates what the EC reports about itself.
type Info struct{}

// ShortDescription explains what this command does in one line
func (cmd *Info) ShortDescription() string {
	return "prints chip, protocol and board information"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Info) LongDescription() string {
	return "Queries that the EC does not support are shown as such."
}

func value(v interface{}, err error) interface{} {
	switch {
	case errors.Is(err, ec.ErrUnsupported):
		return "unsupported"
	case err != nil:
		return fmt.Sprintf("error: %v", err)
	}
	return v
}

// Execute runs the verb.
func (cmd *Info) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(commands.Stdout)
	t.SetTitle("EC")
	t.AppendHeader(table.Row{"Property", "Value"})

	chip, err := ch.ChipInfo()
	if err == nil {
		t.AppendRow(table.Row{"Chip", fmt.Sprintf("%s %s rev %s", chip.Vendor, chip.Name, chip.Revision)})
	} else {
		t.AppendRow(table.Row{"Chip", value(nil, err)})
	}
	t.AppendRow(table.Row{"Running", ch.CurrentImage()})
	if p, err := ch.ProtocolInfo(); err == nil {
		t.AppendRow(table.Row{"Protocol versions", fmt.Sprintf("%#x", p.ProtocolVersions)})
		t.AppendRow(table.Row{"Max request packet", p.MaxRequestPacketSize})
		t.AppendRow(table.Row{"Max response packet", p.MaxResponsePacketSize})
	} else {
		t.AppendRow(table.Row{"Protocol info", value(nil, err)})
	}
	t.AppendRow(table.Row{"Unified host events", ch.UHEPISupported()})
	if f, err := ch.Features(); err == nil {
		t.AppendRow(table.Row{"Features", fmt.Sprintf("%#08x %#08x", f.Flags[1], f.Flags[0])})
	} else {
		t.AppendRow(table.Row{"Features", value(nil, err)})
	}
	t.AppendRow(table.Row{"Board version", value(ch.BoardVersion())})
	t.AppendRow(table.Row{"SKU ID", value(ch.SKUID())})
	t.AppendRow(table.Row{"USB PD ports", value(ch.USBPDPorts())})
	if u, err := ch.UptimeInfo(); err == nil {
		t.AppendRow(table.Row{"Uptime", (time.Duration(u.TimeSinceECBootMs) * time.Millisecond).String()})
		t.AppendRow(table.Row{"AP resets", u.APResetsSinceECBoot})
		t.AppendRow(table.Row{"Reset flags", fmt.Sprintf("%#x", u.ECResetFlags)})
		t.AppendRow(table.Row{"AP watchdog reset", u.ECResetFlags&ec.ResetFlagAPWatchdog != 0})
	} else {
		t.AppendRow(table.Row{"Uptime", value(nil, err)})
	}
	t.Render()
	return nil
}
