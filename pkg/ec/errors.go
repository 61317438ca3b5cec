// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is matched by commands the EC rejects as
	// INVALID_COMMAND and by event mask actions with no legacy command.
	ErrUnsupported = errors.New("not supported by the EC")
	// ErrShortResponse is returned when the EC answers with fewer bytes
	// than the response structure needs.
	ErrShortResponse = errors.New("short response from EC")
	// ErrBufferTooSmall is returned before dispatch when the caller's
	// response buffer cannot hold the expected response.
	ErrBufferTooSmall = errors.New("response buffer too small")
	// ErrBadPacket is returned for malformed protocol v3 packets.
	ErrBadPacket = errors.New("malformed host command packet")
	// ErrTimeout is returned when a polling loop runs out of time.
	ErrTimeout = errors.New("timed out waiting for EC")
	// ErrHashMismatch is returned when the EC RW hash does not match the
	// expected one after an update.
	ErrHashMismatch = errors.New("EC RW hash mismatch")
	// ErrRebootToRO is returned by UpdateRW after it asked the EC to
	// reboot into RO. The caller must not continue booting.
	ErrRebootToRO = errors.New("EC is rebooting to RO to apply an RW update")
	// ErrI2C is returned when a device behind the EC NAKs or times out.
	ErrI2C = errors.New("EC I2C transfer failed")
)

// ResultError is a non-success result returned by the EC.
type ResultError struct {
	Command Cmd
	Result  Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("EC command %v failed: %v", e.Command, e.Result)
}

// Is makes an INVALID_COMMAND result match ErrUnsupported.
func (e *ResultError) Is(target error) bool {
	return target == ErrUnsupported && e.Result == ResInvalidCommand
}

// TransportError is a failure below the host command layer.
type TransportError struct {
	Command Cmd
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("EC command %v: transport: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Status folds err into the single integer status boot firmware uses:
// 0 for success, the EC result code for EC failures and -1 otherwise.
func Status(err error) int {
	if err == nil {
		return 0
	}
	var re *ResultError
	if errors.As(err, &re) {
		return int(re.Result)
	}
	return -1
}
