// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultGrace is how long a command gets to exit after the interrupt signal
// before it is killed.
const DefaultGrace = 10 * time.Second

// Command is a single external command that can be run.
type Command struct {
	// Path of the program to run. Looked up in PATH if not absolute.
	Path string
	// Arguments to pass to the program, not including the program name.
	Args []string
	// Working directory for the program. Current directory if empty.
	Dir string
	// Additional KEY=VALUE pairs. They are appended to the environment of
	// the current process and take precedence over inherited values.
	Env []string
	// Wall clock budget for the run. No limit if zero.
	Timeout time.Duration
	// Time the program gets to exit after the interrupt signal before it is
	// killed. [DefaultGrace] if zero.
	Grace time.Duration
	// Stdout of the command. If not set, os.Stdout will be used.
	OutWriter io.Writer
	// Stderr of the command. If not set, os.Stderr will be used.
	ErrWriter io.Writer
}

// Output returns [Command.OutWriter] if set or [os.Stdout] otherwise.
func (c *Command) Output() io.Writer {
	if c.OutWriter == nil {
		return os.Stdout
	}

	return c.OutWriter
}

// ErrOutput returns [Command.ErrWriter] if set or [os.Stderr] otherwise.
func (c *Command) ErrOutput() io.Writer {
	if c.ErrWriter == nil {
		return os.Stderr
	}

	return c.ErrWriter
}

// Run executes the command and blocks until it exited or the context is
// done.
//
// On timeout or context cancellation the program is sent an interrupt
// signal, not killed, so it can unwind and report. Once the grace period
// passes it is killed. Errors are returned as [CommandError] carrying the
// exit code and the most recent stderr lines. Timeouts additionally match
// [ErrTimeout].
func (c *Command) Run(ctx context.Context) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, c.Timeout, ErrTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = environ(c.Env)
	cmd.WaitDelay = c.grace()
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	slog.Debug("Run command",
		slog.String("path", c.Path),
		slog.Any("args", c.Args),
		slog.Duration("timeout", c.Timeout),
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	errTail := newTail(tailMaxLines, tailMaxBytes)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	processorsGroup := errgroup.Group{}
	processorsGroup.Go(streamLines(c.Output(), stdout, nil))
	processorsGroup.Go(streamLines(c.ErrOutput(), stderr, errTail))

	// The pipes reach EOF once the process exited, or are closed forcibly
	// after WaitDelay. Either way the processors terminate before Wait.
	processorsErr := processorsGroup.Wait()

	if err := cmd.Wait(); err != nil {
		return c.wrapWaitError(ctx, err, errTail)
	}

	return processorsErr
}

func (c *Command) grace() time.Duration {
	if c.Grace == 0 {
		return DefaultGrace
	}

	return c.Grace
}

func (c *Command) wrapWaitError(
	ctx context.Context,
	err error,
	errTail *tail,
) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &CommandError{
		Err:      err,
		Name:     c.Path,
		ExitCode: exitCode,
		Stderr:   errTail.String(),
	}
}

// environ merges extra KEY=VALUE pairs into the current process environment.
// The extra pairs are appended, so they win over inherited variables.
func environ(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}

	return append(os.Environ(), extra...)
}
