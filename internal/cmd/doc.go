// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package cmd provides the CLI command entry point for forge. It handles
// flag parsing, configuration loading, command dispatch, and error
// handling.
package cmd
