// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package manifest

import "errors"

var (
	// ErrInvalid is returned if a manifest fails shape or semantic
	// validation.
	ErrInvalid = errors.New("manifest invalid")

	// ErrNoTarget is returned if a manifest declares no entry point
	// target.
	ErrNoTarget = errors.New("manifest declares no entry point target")
)
