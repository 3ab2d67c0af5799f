// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package proc

import "errors"

// ErrTimeout is returned if a command exceeded its wall clock budget and was
// interrupted.
var ErrTimeout = errors.New("command timed out")

// CommandError wraps any error occurred while running a command. ExitCode is
// the command's exit code, or -1 if it did not exit on its own.
type CommandError struct {
	Err      error
	Name     string
	ExitCode int
	Stderr   string
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	msg := e.Name + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *CommandError) Unwrap() error {
	return e.Err
}
