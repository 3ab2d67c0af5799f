// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package sys

import "errors"

var (
	// ErrUnknownArch is returned if no cross toolchain prefix is pinned for
	// the requested architecture. The message keeps the spelling of the make
	// variable the token comes from.
	ErrUnknownArch = errors.New("Unknown ARCH")

	// ErrEmptyPath is returned if a required path argument is empty.
	ErrEmptyPath = errors.New("path must not be empty")

	// ErrNotDir is returned if a path expected to name a directory names
	// something else.
	ErrNotDir = errors.New("not a directory")

	// ErrNotRegularFile is returned if a path expected to name a regular
	// file names something else.
	ErrNotRegularFile = errors.New("not a regular file")
)
