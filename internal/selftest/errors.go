// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package selftest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCommand is returned if a step has no command to run.
var ErrNoCommand = errors.New("step has no command")

// StaleDocsError is returned if the generated documentation differs from
// the committed files.
type StaleDocsError struct {
	Files []string
}

func (e *StaleDocsError) Error() string {
	return fmt.Sprintf(
		"generated documentation differs from the committed files, "+
			"regenerate and commit: %s",
		strings.Join(e.Files, ", "),
	)
}

// Is implements the [errors.Is] interface. It matches by type only.
func (e *StaleDocsError) Is(other error) bool {
	_, ok := other.(*StaleDocsError)

	return ok
}

// VendoredError is returned if commits outside the allowlist touch the
// vendored tree.
type VendoredError struct {
	Dir     string
	Commits []string
}

func (e *VendoredError) Error() string {
	return fmt.Sprintf(
		"%s is vendored and must not be modified here, found commits: %s",
		e.Dir,
		strings.Join(e.Commits, ", "),
	)
}

// Is implements the [errors.Is] interface. It matches by type only.
func (e *VendoredError) Is(other error) bool {
	_, ok := other.(*VendoredError)

	return ok
}
