// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package sys

import (
	"fmt"
	"os"
	"path/filepath"
)

// CanonicalDir resolves path into an absolute path free of symlinks. It
// fails if the path does not exist or does not name a directory.
func CanonicalDir(path string) (string, error) {
	resolved, info, err := canonical(path)
	if err != nil {
		return "", err
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", resolved, ErrNotDir)
	}

	return resolved, nil
}

// CanonicalFile resolves path into an absolute path free of symlinks. It
// fails if the path does not exist or does not name a regular file.
func CanonicalFile(path string) (string, error) {
	resolved, info, err := canonical(path)
	if err != nil {
		return "", err
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", resolved, ErrNotRegularFile)
	}

	return resolved, nil
}

func canonical(path string) (string, os.FileInfo, error) {
	if path == "" {
		return "", nil, ErrEmptyPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("absolute path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("stat: %w", err)
	}

	return resolved, info, nil
}
