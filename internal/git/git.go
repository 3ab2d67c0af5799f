// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package git wraps the git invocations forge needs: fetching pinned tool
// sources and inspecting the state of the lab repository itself. It expects
// the "git" executable to be present on the system.
package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
)

// Clone fetches the repository at url into dir.
//
// If ref is set, only that branch or tag is fetched. A positive depth limits
// the fetched history. The target directory must not exist; git itself
// refuses to clone into a non-empty one and the error is passed on.
func Clone(ctx context.Context, url, dir, ref string, depth int) error {
	args := []string{"clone"}

	if depth > 0 {
		args = append(args, "--depth", strconv.Itoa(depth))
	}

	if ref != "" {
		args = append(args, "--branch", ref)
	}

	args = append(args, url, dir)

	_, err := run(ctx, "", args...)

	return err
}

// Checkout switches the work tree in dir to ref.
func Checkout(ctx context.Context, dir, ref string) error {
	_, err := run(ctx, dir, "checkout", ref)

	return err
}

// DiffNames lists the files under the given paths that differ from HEAD in
// the work tree of the repository at dir. An empty result means the paths
// are clean.
func DiffNames(ctx context.Context, dir string, paths ...string) ([]string, error) {
	args := append([]string{"diff", "--name-only", "HEAD", "--"}, paths...)

	out, err := run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	return scanLines(bytes.NewReader(out))
}

// RevList lists the commits in revRange that touch the given paths, most
// recent first, as full hashes.
func RevList(
	ctx context.Context,
	dir, revRange string,
	paths ...string,
) ([]string, error) {
	args := append([]string{"rev-list", revRange, "--"}, paths...)

	out, err := run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	return scanLines(bytes.NewReader(out))
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	slog.Debug("Run git", slog.String("dir", dir), slog.Any("args", args))

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, &ExecError{
			Err:    err,
			Args:   args,
			Stderr: stderr.String(),
		}
	}

	return stdout.Bytes(), nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}

	if scanner.Err() != nil {
		return nil, fmt.Errorf("scan output: %w", scanner.Err())
	}

	return lines, nil
}
