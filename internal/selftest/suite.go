// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package selftest drives the lab's own test sequence in CI.
//
// A suite is an ordered list of external commands that run sequentially
// and fail fast, followed by two repository checks: generated
// documentation must match the committed files, and the vendored tree
// must not be touched by commits outside an allowlist. The process exit
// code is the only channel back to the CI host.
package selftest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/forgelab/forge/internal/metrics"
	"github.com/forgelab/forge/internal/proc"
)

// Step is a single command of the suite.
type Step struct {
	// Name identifies the step in logs and metrics.
	Name string `yaml:"name"`
	// Run is the command with its arguments.
	Run []string `yaml:"run"`
	// Dir is the working directory, relative to the repository unless
	// absolute. The repository root if empty.
	Dir string `yaml:"dir"`
	// Additional KEY=VALUE pairs for the command.
	Env []string `yaml:"env"`
	// Timeout is the wall clock budget. On expiry the command is
	// interrupted, not killed, so it can report what it was doing. No
	// limit if zero.
	Timeout Duration `yaml:"timeout"`
	// Grace is how long the command gets between interrupt and kill.
	Grace Duration `yaml:"grace"`
	// Tolerant marks a step whose failure is logged but does not fail
	// the suite.
	Tolerant bool `yaml:"tolerant"`
}

// DocsCheck configures the generated documentation check.
type DocsCheck struct {
	// Dir is the generated documentation tree, relative to the
	// repository. Empty disables the check.
	Dir string `yaml:"dir"`
}

// VendoredCheck configures the vendored tree check.
type VendoredCheck struct {
	// Dir is the vendored tree, relative to the repository. Empty
	// disables the check.
	Dir string `yaml:"dir"`
	// Base bounds the inspected history to base..HEAD. The whole
	// history if empty.
	Base string `yaml:"base"`
	// Allow lists commit hashes, or unambiguous prefixes of them, that
	// may touch the vendored tree.
	Allow []string `yaml:"allow"`
}

// Config is the complete self-test configuration.
type Config struct {
	Steps    []Step        `yaml:"steps"`
	Docs     DocsCheck     `yaml:"docs"`
	Vendored VendoredCheck `yaml:"vendored"`
}

// DefaultConfig returns the standard sequence: tolerant environment
// initialization, the test run with a generous interruptible timeout,
// documentation rebuild, and the documentation check.
func DefaultConfig() Config {
	return Config{
		Steps: []Step{
			{
				Name:     "init-env",
				Run:      []string{"./init_env"},
				Tolerant: true,
			},
			{
				Name:    "self-tests",
				Run:     []string{"make", "test"},
				Timeout: Duration(50 * time.Minute),
			},
			{
				Name: "build-docs",
				Run:  []string{"make", "docs"},
			},
		},
		Docs: DocsCheck{Dir: "doc"},
	}
}

// Suite runs the configured steps and checks against a repository.
type Suite struct {
	// Repo is the repository root the steps and checks run in.
	Repo string
	// Steps run in order.
	Steps []Step
	// Docs configures the documentation check.
	Docs DocsCheck
	// Vendored configures the vendored tree check.
	Vendored VendoredCheck
	// Additional KEY=VALUE pairs for all steps.
	Env []string
	// Metrics records step and check outcomes. Optional.
	Metrics metrics.Collector
	// Stdout of the steps. If not set, os.Stdout will be used.
	OutWriter io.Writer
	// Stderr of the steps. If not set, os.Stderr will be used.
	ErrWriter io.Writer
}

// New creates a [Suite] for the repository at repo from the given
// configuration.
func New(repo string, cfg Config) *Suite {
	return &Suite{
		Repo:     repo,
		Steps:    cfg.Steps,
		Docs:     cfg.Docs,
		Vendored: cfg.Vendored,
	}
}

// Run executes the steps in order and then the repository checks.
//
// The first failing step aborts the suite, except for tolerant steps
// whose failure is logged only. Step errors carry the exit code of the
// failed command.
func (s *Suite) Run(ctx context.Context) error {
	for _, step := range s.Steps {
		start := time.Now()
		err := s.runStep(ctx, step)
		s.collector().RecordStep(
			"selftest", step.Name, time.Since(start), err == nil,
		)

		if err != nil {
			if step.Tolerant {
				slog.Warn("Tolerated step failure",
					slog.String("step", step.Name),
					slog.Any("error", err),
				)

				continue
			}

			return fmt.Errorf("step %s: %w", step.Name, err)
		}

		slog.Info("Step done", slog.String("step", step.Name))
	}

	if err := s.check(ctx, "docs", s.Docs.Dir != "", s.CheckDocs); err != nil {
		return err
	}

	return s.check(ctx, "vendored", s.Vendored.Dir != "", s.CheckVendored)
}

func (s *Suite) runStep(ctx context.Context, step Step) error {
	if len(step.Run) == 0 {
		return ErrNoCommand
	}

	cmd := &proc.Command{
		Path:      step.Run[0],
		Args:      step.Run[1:],
		Dir:       s.stepDir(step),
		Env:       append(append([]string{}, s.Env...), step.Env...),
		Timeout:   step.Timeout.Std(),
		Grace:     step.Grace.Std(),
		OutWriter: s.OutWriter,
		ErrWriter: s.ErrWriter,
	}

	return cmd.Run(ctx)
}

func (s *Suite) check(
	ctx context.Context,
	name string,
	enabled bool,
	run func(context.Context) error,
) error {
	if !enabled {
		return nil
	}

	start := time.Now()
	err := run(ctx)
	s.collector().RecordStep("selftest", name, time.Since(start), err == nil)

	if err != nil {
		return fmt.Errorf("%s check: %w", name, err)
	}

	slog.Info("Check passed", slog.String("check", name))

	return nil
}

func (s *Suite) stepDir(step Step) string {
	switch {
	case step.Dir == "":
		return s.Repo
	case filepath.IsAbs(step.Dir):
		return step.Dir
	default:
		return filepath.Join(s.Repo, step.Dir)
	}
}

func (s *Suite) collector() metrics.Collector {
	if s.Metrics == nil {
		return metrics.Nop()
	}

	return s.Metrics
}
