// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package kmod builds out-of-tree kernel modules against a kernel source
// tree.
//
// The actual compilation is delegated to the module's own Makefile. The
// package resolves the involved paths, picks the target architecture and
// the matching cross toolchain prefix, and hands everything over in the
// environment.
package kmod

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/forgelab/forge/internal/proc"
	"github.com/forgelab/forge/internal/sys"
)

// Build describes a single out-of-tree kernel module build.
type Build struct {
	// KernelDir is the kernel source tree the module is built against.
	KernelDir string
	// ModuleDir is the module source tree with its own Makefile.
	ModuleDir string
	// InstallDir is where install artifacts are placed. The module source
	// tree if empty.
	InstallDir string
	// Arch is the raw target architecture token. The host architecture if
	// empty.
	Arch string
	// CrossCompile is the toolchain prefix. If set, it is passed on as is
	// and never derived.
	CrossCompile string
	// Host overrides host architecture detection.
	Host sys.Arch
	// Additional KEY=VALUE pairs for the delegated build.
	Env []string
	// Stdout of the delegated build. If not set, os.Stdout will be used.
	OutWriter io.Writer
	// Stderr of the delegated build. If not set, os.Stderr will be used.
	ErrWriter io.Writer
}

// Resolve canonicalizes the three build paths and fails if any of them
// does not exist. Nothing is built before all paths resolved.
func (b *Build) Resolve() error {
	kernelDir, err := sys.CanonicalDir(b.KernelDir)
	if err != nil {
		return fmt.Errorf("kernel source: %w", err)
	}

	moduleDir, err := sys.CanonicalDir(b.ModuleDir)
	if err != nil {
		return fmt.Errorf("module source: %w", err)
	}

	installDir := b.InstallDir
	if installDir == "" {
		installDir = moduleDir
	}

	installDir, err = sys.CanonicalDir(installDir)
	if err != nil {
		return fmt.Errorf("install path: %w", err)
	}

	b.KernelDir = kernelDir
	b.ModuleDir = moduleDir
	b.InstallDir = installDir

	return nil
}

// Environment returns the variables the delegated build consumes. The
// architecture token is normalized first. A cross toolchain prefix is
// derived only when the target differs from the host and none is preset.
// Cross-building for an architecture without a pinned prefix fails with
// [sys.ErrUnknownArch].
func (b *Build) Environment() ([]string, error) {
	host := b.Host
	if host == "" {
		detected, err := sys.Host()
		if err != nil {
			return nil, fmt.Errorf("host arch: %w", err)
		}

		host = detected
	}

	target := host
	if b.Arch != "" {
		target = sys.Normalize(b.Arch)
	}

	crossCompile := b.CrossCompile
	if crossCompile == "" && target != host {
		derived, err := target.CrossCompile()
		if err != nil {
			return nil, err
		}

		crossCompile = derived
	}

	env := []string{
		"KERNEL_SRC=" + b.KernelDir,
		"MODULE_SRC=" + b.ModuleDir,
		"INSTALL_MOD_PATH=" + b.InstallDir,
		"ARCH=" + target.String(),
	}

	if crossCompile != "" {
		env = append(env, "CROSS_COMPILE="+crossCompile)
	}

	return env, nil
}

// Run resolves the paths, assembles the environment and runs make in the
// module source tree. Anything beyond the environment is up to the
// module's build system.
func (b *Build) Run(ctx context.Context) error {
	if err := b.Resolve(); err != nil {
		return err
	}

	env, err := b.Environment()
	if err != nil {
		return err
	}

	slog.Debug("Build kernel module",
		slog.String("module", b.ModuleDir),
		slog.Any("env", env),
	)

	cmd := &proc.Command{
		Path:      "make",
		Args:      []string{"-C", b.ModuleDir},
		Env:       append(slices.Clone(b.Env), env...),
		OutWriter: b.OutWriter,
		ErrWriter: b.ErrWriter,
	}

	return cmd.Run(ctx)
}
