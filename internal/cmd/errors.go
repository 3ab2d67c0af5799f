// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package cmd

import (
	"errors"
	"flag"
	"fmt"
)

// ErrHelp is returned if command line help is requested.
var ErrHelp = flag.ErrHelp

// ErrReadBuildInfo is returned if the binary build info can not be read.
var ErrReadBuildInfo = errors.New("build info not available")

// ErrUnknownCommand is returned if the given command is not known.
var ErrUnknownCommand = errors.New("unknown command")

// ParseArgsError wraps errors that occur during argument parsing.
type ParseArgsError struct {
	err error
	msg string
}

func (e *ParseArgsError) Error() string {
	if e.err == nil {
		return e.msg
	}

	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *ParseArgsError) Is(other error) bool {
	_, ok := other.(*ParseArgsError)
	return ok
}

func (e *ParseArgsError) Unwrap() error {
	return e.err
}
