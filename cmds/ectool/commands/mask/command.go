// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mask holds the host event verbs.
package mask

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/ec"
)

var (
	_ commands.Command = (*Mask)(nil)
	_ commands.Command = (*Events)(nil)
)

// Mask reads and changes event masks.
type Mask struct{}

// ShortDescription explains what this command does in one line
func (cmd *Mask) ShortDescription() string {
	return "gets, sets or clears host event masks"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Mask) LongDescription() string {
	return `mask                      show every mask
mask get KIND
mask set KIND EVENTS
mask clear KIND EVENTS

KIND is one of main, b, sci, smi, always-report, active-wake,
lazy-wake-s0ix, lazy-wake-s3, lazy-wake-s5. EVENTS is a number or a
comma separated list of event names such as lid-open,power-button.`
}

// Execute runs the verb.
func (cmd *Mask) Execute(args []string) error {
	if err := commands.Args(args, 0, 3); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return showAll(ch)
	}

	var kind ec.MaskKind
	if len(args) > 1 {
		if kind, err = ec.ParseMaskKind(args[1]); err != nil {
			return commands.ErrArgs{Err: err}
		}
	}
	switch args[0] {
	case "get":
		if err := commands.Args(args, 2, 2); err != nil {
			return err
		}
		v, err := ch.GetMask(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "%v: %s\n", kind, commands.FormatMask(v))
		return nil
	case "set", "clear":
		if err := commands.Args(args, 3, 3); err != nil {
			return err
		}
		v, err := commands.ParseEvents(args[2])
		if err != nil {
			return err
		}
		if args[0] == "set" {
			return ch.SetMask(kind, v)
		}
		return ch.ClearMask(kind, v)
	}
	return commands.ErrArgs{Err: fmt.Errorf("unknown mask action %q", args[0])}
}

func showAll(ch *ec.Channel) error {
	t := table.NewWriter()
	t.SetOutputMirror(commands.Stdout)
	if ch.UHEPISupported() {
		t.SetTitle("Host event masks (unified)")
	} else {
		t.SetTitle("Host event masks (legacy)")
	}
	t.AppendHeader(table.Row{"Kind", "Value", "Events"})
	for _, k := range ec.MaskKinds {
		v, err := ch.GetMask(k)
		if err != nil {
			t.AppendRow(table.Row{k, "error", err})
			continue
		}
		t.AppendRow(table.Row{k, fmt.Sprintf("%#x", v), ec.FormatEvents(v)})
	}
	t.Render()
	return nil
}

// Events shows and acknowledges pending events.
type Events struct {
	Clear  bool `long:"clear" description:"acknowledge the pending B events"`
	Log    bool `long:"log" description:"record the pending B events in the event log and acknowledge them"`
	Device bool `long:"device" description:"show pending device events instead"`
}

// ShortDescription explains what this command does in one line
func (cmd *Events) ShortDescription() string {
	return "shows pending host or device events"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Events) LongDescription() string {
	return ""
}

// Execute runs the verb.
func (cmd *Events) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}
	if cmd.Device {
		cur, err := ch.DeviceEvents()
		if err != nil {
			return err
		}
		enabled, err := ch.EnabledDeviceEvents()
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "pending: %#x\nenabled: %#x\n", cur, enabled)
		return nil
	}
	if cmd.Log {
		logged, err := ch.LogEvents(^uint64(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(commands.Stdout, "logged: %s\n", commands.FormatMask(logged))
		return nil
	}
	pending, err := ch.GetEventsB()
	if err != nil {
		return err
	}
	fmt.Fprintf(commands.Stdout, "pending: %s\n", commands.FormatMask(pending))
	if e, ok := ec.RecoveryEvent(pending); ok {
		fmt.Fprintf(commands.Stdout, "recovery requested: %v\n", e)
	}
	if cmd.Clear && pending != 0 {
		return ch.ClearEventsB(pending)
	}
	return nil
}
