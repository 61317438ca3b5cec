// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package initcmd runs the boot time EC init sequence from the command line.
package initcmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/pkg/cbfs"
	"github.com/linuxboot/chromeec/pkg/config"
	"github.com/linuxboot/chromeec/pkg/ec"
	"github.com/linuxboot/chromeec/pkg/ecinit"
)

var _ commands.Command = (*Command)(nil)

// Command runs EC init.
type Command struct {
	Config string `short:"c" long:"config" description:"board configuration (YAML)"`
	Image  string `short:"f" long:"image" description:"coreboot image holding the EC RW image and hash"`
	Resume bool   `long:"resume" description:"run the S3 resume path"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "runs the boot time EC init sequence"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Detects keyboard recovery, logs pending events, programs the SCI, SMI
and wake masks, runs EC RW software sync, jumps to the synced RW image
and hands fan control back to the EC, as firmware does at boot.`
}

type emptyStore struct{}

func (emptyStore) Lookup(name string) ([]byte, error) {
	return nil, &fs.PathError{Op: "lookup", Path: name, Err: fs.ErrNotExist}
}

// Execute runs the verb.
func (cmd *Command) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	board := config.Default()
	if cmd.Config != "" {
		var err error
		if board, err = config.Load(cmd.Config); err != nil {
			return err
		}
	}
	var store ec.FileStore = emptyStore{}
	if cmd.Image != "" {
		img, err := cbfs.Open(cmd.Image)
		if err != nil {
			return fmt.Errorf("unable to open the firmware image file '%s': %w", cmd.Image, err)
		}
		store = img
	}
	if commands.Global.EventLog == "" {
		commands.Global.EventLog = board.EventLog
	}
	ch, err := commands.Channel()
	if err != nil {
		return err
	}

	r, err := ecinit.Run(ch, store, board, ecinit.Options{
		Resume: cmd.Resume,
		Halt: func() {
			fmt.Fprintln(commands.Stdout, "EC is rebooting to RO, halting")
		},
	})
	if r != nil {
		if r.Recovery != 0 {
			fmt.Fprintf(commands.Stdout, "recovery:      %v\n", r.Recovery)
		}
		fmt.Fprintf(commands.Stdout, "events:        %s\n", commands.FormatMask(r.Events))
		fmt.Fprintf(commands.Stdout, "device events: %#x\n", r.DeviceEvents)
		fmt.Fprintf(commands.Stdout, "EC RW:         %v\n", r.Update)
		if r.JumpedToRW {
			fmt.Fprintln(commands.Stdout, "jumped to RW")
		}
		if r.AutoFan {
			fmt.Fprintln(commands.Stdout, "automatic fan control enabled")
		}
	}
	if errors.Is(err, ec.ErrRebootToRO) {
		return nil
	}
	return err
}
