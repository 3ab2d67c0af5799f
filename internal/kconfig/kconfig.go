// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package kconfig patches Kconfig-style configuration files as produced by
// "make defconfig". Patching is line oriented: existing assignments and
// "is not set" comments for the overridden keys are dropped and the new
// assignments are appended, so the result is what the kernel build system
// would read last.
package kconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedOption is returned if an option string is not of the form
// KEY=value.
var ErrMalformedOption = errors.New("malformed config option")

// Option is a single KEY=value assignment.
type Option struct {
	Key   string
	Value string
}

// ParseOption splits an option string of the form KEY=value.
func ParseOption(s string) (Option, error) {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" {
		return Option{}, fmt.Errorf("%w: %q", ErrMalformedOption, s)
	}

	return Option{Key: key, Value: value}, nil
}

// ParseOptions parses a list of KEY=value strings, keeping their order.
func ParseOptions(raw []string) ([]Option, error) {
	opts := make([]Option, 0, len(raw))

	for _, s := range raw {
		opt, err := ParseOption(s)
		if err != nil {
			return nil, err
		}

		opts = append(opts, opt)
	}

	return opts, nil
}

func (o Option) String() string {
	return o.Key + "=" + o.Value
}

// Patch copies the config from r to w with the given options applied. Every
// line assigning or unsetting one of the option keys is dropped. Key
// matching is exact, not by prefix, so overriding CONFIG_STATIC leaves
// CONFIG_STATIC_LIBGCC alone. One assignment per option is appended at the
// end, in the order given.
func Patch(w io.Writer, r io.Reader, opts []Option) error {
	keys := make(map[string]struct{}, len(opts))
	for _, opt := range opts {
		keys[opt.Key] = struct{}{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if key, ok := assignedKey(line); ok {
			if _, drop := keys[key]; drop {
				continue
			}
		}

		if key, ok := unsetKey(line); ok {
			if _, drop := keys[key]; drop {
				continue
			}
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	if scanner.Err() != nil {
		return fmt.Errorf("read config: %w", scanner.Err())
	}

	for _, opt := range opts {
		if _, err := fmt.Fprintln(w, opt.String()); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}

	return nil
}

// Apply patches the config file at path in place. The file is rewritten via
// a temporary file in the same directory and renamed over the original, so
// a failed run never leaves a half-written config behind.
func Apply(path string, opts ...Option) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}

	err = patchInto(tmp, src, info.Mode(), opts)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replace config: %w", err)
	}

	return nil
}

func patchInto(
	tmp *os.File,
	src io.Reader,
	mode os.FileMode,
	opts []Option,
) error {
	if err := Patch(tmp, src, opts); err != nil {
		return err
	}

	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}

	return nil
}

// assignedKey returns the key of a KEY=value line.
func assignedKey(line string) (string, bool) {
	key, _, found := strings.Cut(line, "=")
	if !found || key == "" || strings.HasPrefix(key, "#") {
		return "", false
	}

	return key, true
}

// unsetKey returns the key of a "# KEY is not set" line.
func unsetKey(line string) (string, bool) {
	rest, found := strings.CutPrefix(line, "# ")
	if !found {
		return "", false
	}

	key, found := strings.CutSuffix(rest, " is not set")
	if !found || key == "" || strings.ContainsRune(key, ' ') {
		return "", false
	}

	return key, true
}
