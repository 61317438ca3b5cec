// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Command is an interface of implementations of verbs
// (like "version", "mask" etc of "ectool version"/"ectool mask")
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}

// ErrArgs means arguments are invalid
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}

// Args checks the number of positional arguments.
func Args(args []string, min, max int) error {
	if len(args) < min {
		return ErrArgs{Err: fmt.Errorf("want at least %d arguments, have %d", min, len(args))}
	}
	if max >= 0 && len(args) > max {
		return ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	return nil
}
