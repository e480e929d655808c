// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Exit statuses of pcdtool.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ErrArgs is returned by a verb that was given positional arguments or
// option values it cannot use. No workspace file has been read yet when it
// is returned.
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}

// ExitCode maps the error of a pcdtool run to its exit status. Bad
// arguments, whether rejected by go-flags or by a verb, exit with ExitUsage.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var argsErr ErrArgs
	if errors.As(err, &argsErr) {
		return ExitUsage
	}
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			return ExitOK
		}
		return ExitUsage
	}
	return ExitError
}
