// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package proc runs external build and test tools as child processes.
//
// Output is consumed line by line so carriage-return progress output from
// build tools does not end up in CI logs. On context cancellation or timeout
// the child receives an interrupt signal first and is killed only after a
// grace period, so test runners get a chance to print stack traces and exit
// on their own terms.
package proc
