// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package git

import "strings"

// ExecError is returned if a git invocation fails. It carries the captured
// stderr, which is where git explains itself.
type ExecError struct {
	Err    error
	Args   []string
	Stderr string
}

// Error implements the [error] interface.
func (e *ExecError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + ": " + e.Err.Error()

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*ExecError) Is(other error) bool {
	_, ok := other.(*ExecError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ExecError) Unwrap() error {
	return e.Err
}
