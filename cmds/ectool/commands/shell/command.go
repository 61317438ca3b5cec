// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shell runs ectool verbs interactively against one EC
// connection, which keeps a simulated EC's state between verbs.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/chromeec/cmds/ectool/commands"
)

var _ commands.Command = (*Command)(nil)

// Command is the interactive shell.
type Command struct {
	// NewParser returns a parser for the verbs usable in the shell.
	NewParser func() *flags.Parser
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "runs verbs interactively"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Every line is an ectool command line without the program name. The\nEC connection is kept until exit."
}

// Execute runs the verb.
func (cmd *Command) Execute(args []string) error {
	if err := commands.Args(args, 0, 0); err != nil {
		return err
	}
	if _, err := commands.Channel(); err != nil {
		return err
	}
	defer commands.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ec> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := commands.Stdout
	commands.Stdout = rl.Stdout()
	defer func() { commands.Stdout = out }()

	return cmd.loop(rl)
}

func (cmd *Command) loop(rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit := cmd.run(rl.Stderr(), line); quit {
			return nil
		}
	}
}

// run executes one line and reports whether the shell should exit.
func (cmd *Command) run(stderr io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fields = []string{"--help"}
	}
	p := cmd.NewParser()
	p.Options &^= flags.PrintErrors
	if _, err := p.ParseArgs(fields); err != nil {
		fmt.Fprintln(stderr, err)
	}
	return false
}
