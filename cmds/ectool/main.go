// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ectool talks to a ChromeOS EC through its host command interface.
//
// Synopsis:
//
//	ectool [-t dev|lpc|sim] [-d] VERB [options] [args]
//
// An example:
//
//	ectool version
//	ectool -t lpc mask get sci
//	ectool mask set sci lid-open,lid-closed,power-button
//	ectool update -f coreboot.rom
//	ectool init -c board.yaml -f coreboot.rom
//	ectool -t sim shell
//
// Description:
//
//	version:    Print RO/RW versions and the running copy
//	hello:      Check the EC answers
//	info:       Print chip, protocol and board information
//	mask:       Get, set or clear host event masks
//	events:     Show, log or clear pending host or device events
//	flashinfo:  Print flash geometry, regions and protection
//	flashread:  Dump EC flash to a file
//	hash:       Get, start or abort the EC RW hash
//	update:     Software sync of the EC RW image
//	cbi:        Get or set CrOS Board Info
//	rtc:        Get or set the EC RTC
//	backlight:  Get or set the keyboard backlight
//	usbcharge:  Set a USB port charge mode
//	cutoff:     Cut off the battery
//	vbnv:       Read or write the vboot context
//	efs:        Ask the EC to verify an image
//	post:       Show a POST code on the keyboard backlight
//	autofan:    Return the fans to EC control
//	charger:    Show or cap the active charger
//	pdrole:     Set the power role of a PD port
//	dp:         Wait for DisplayPort on a USB-C port
//	i2c:        Read or write I2C registers behind the EC
//	mkbp:       Drain queued MKBP events
//	reboot:     Reboot the EC
//	init:       Run the boot time EC init sequence
//	shell:      Run verbs interactively
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/board"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/flash"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/info"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/initcmd"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/mask"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/pd"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/reboot"
	"github.com/linuxboot/chromeec/cmds/ectool/commands/shell"
	"github.com/linuxboot/chromeec/pkg/log"
)

func knownCommands() map[string]commands.Command {
	return map[string]commands.Command{
		"version":   &info.Version{},
		"hello":     &info.Hello{},
		"info":      &info.Info{},
		"mask":      &mask.Mask{},
		"events":    &mask.Events{},
		"flashinfo": &flash.Info{},
		"flashread": &flash.Read{},
		"hash":      &flash.Hash{},
		"update":    &flash.Update{},
		"cbi":       &board.CBI{},
		"rtc":       &board.RTC{},
		"backlight": &board.Backlight{},
		"usbcharge": &board.USBCharge{},
		"cutoff":    &board.Cutoff{},
		"vbnv":      &board.VbNv{},
		"efs":       &board.EFS{},
		"post":      &board.Post{},
		"autofan":   &board.AutoFan{},
		"charger":   &pd.Charger{},
		"pdrole":    &pd.Role{},
		"dp":        &pd.DisplayPort{},
		"i2c":       &pd.I2C{},
		"mkbp":      &pd.MKBP{},
		"reboot":    &reboot.Command{},
		"init":      &initcmd.Command{},
	}
}

func newParser(options flags.Options, cmds map[string]commands.Command) *flags.Parser {
	flagsParser := flags.NewParser(&commands.Global, options)
	flagsParser.CommandHandler = func(command flags.Commander, args []string) error {
		commands.Setup()
		return command.Execute(args)
	}
	for commandName, command := range cmds {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}
	return flagsParser
}

func main() {
	cmds := knownCommands()
	cmds["shell"] = &shell.Command{
		NewParser: func() *flags.Parser {
			return newParser(flags.HelpFlag|flags.PassDoubleDash, knownCommands())
		},
	}

	// parse arguments and execute the appropriate command
	_, err := newParser(flags.Default, cmds).Parse()
	if cerr := commands.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}
}
