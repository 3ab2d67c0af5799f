// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package metrics records per step timings and pushes them to a
// Prometheus push gateway.
//
// Runs are short lived processes, so metrics are collected in a private
// registry and pushed once on exit instead of being scraped. A failed
// push never fails the run.
package metrics

import (
	"context"
	"time"
)

// Collector records the outcome of the steps a command runs.
type Collector interface {
	// RecordStep records a single finished step of the given command
	// with its duration and result.
	RecordStep(command, step string, duration time.Duration, ok bool)

	// Push sends the recorded metrics to the push gateway. Push
	// failures are logged, not returned, so the error is always nil
	// unless the implementation decides otherwise.
	Push(ctx context.Context) error
}

type nopCollector struct{}

func (nopCollector) RecordStep(_, _ string, _ time.Duration, _ bool) {}

func (nopCollector) Push(_ context.Context) error { return nil }

// Nop returns a [Collector] that discards everything. It is used when
// metrics are disabled.
func Nop() Collector {
	return nopCollector{}
}

// New returns a [Collector] for the given configuration. With metrics
// disabled it returns [Nop].
func New(cfg Config) (Collector, error) {
	if !cfg.Enabled {
		return Nop(), nil
	}

	return NewPrometheus(cfg)
}
