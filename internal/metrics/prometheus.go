// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// maxLabelLen bounds label values so untrusted step names cannot blow
// up the label set.
const maxLabelLen = 128

// Prometheus is a [Collector] backed by a private Prometheus registry.
type Prometheus struct {
	cfg      Config
	registry *prometheus.Registry
	instance string

	stepDuration *prometheus.HistogramVec
	stepSuccess  *prometheus.CounterVec
	stepError    *prometheus.CounterVec
}

// NewPrometheus creates a [Prometheus] collector for the given
// configuration.
func NewPrometheus(cfg Config) (*Prometheus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	instance := cfg.Instance
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			slog.Warn("Hostname for instance label unavailable",
				slog.Any("error", err))

			hostname = "unknown"
		}

		instance = hostname
	}

	stepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Name:      "step_duration_seconds",
			Help:      "Duration of a single step in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"command", "step", "status"},
	)

	stepSuccess := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Name:      "step_success_total",
			Help:      "Total number of successful steps.",
		},
		[]string{"command", "step"},
	)

	stepError := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Name:      "step_error_total",
			Help:      "Total number of failed steps.",
		},
		[]string{"command", "step"},
	)

	registry := prometheus.NewRegistry()

	collectors := []prometheus.Collector{stepDuration, stepSuccess, stepError}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
	}

	p := &Prometheus{
		cfg:          cfg,
		registry:     registry,
		instance:     instance,
		stepDuration: stepDuration,
		stepSuccess:  stepSuccess,
		stepError:    stepError,
	}

	return p, nil
}

// RecordStep implements [Collector].
func (p *Prometheus) RecordStep(
	command, step string,
	duration time.Duration,
	ok bool,
) {
	status := "success"
	if !ok {
		status = "error"
	}

	command = sanitizeLabel(command)
	step = sanitizeLabel(step)

	p.stepDuration.WithLabelValues(command, step, status).
		Observe(duration.Seconds())

	if ok {
		p.stepSuccess.WithLabelValues(command, step).Inc()
	} else {
		p.stepError.WithLabelValues(command, step).Inc()
	}
}

// Push implements [Collector]. Push failures are logged and swallowed
// since losing a sample must not fail the run that produced it.
func (p *Prometheus) Push(ctx context.Context) error {
	pusher := push.New(p.cfg.PushURL, p.cfg.Job).
		Gatherer(p.registry).
		Grouping("instance", p.instance)

	pushCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := pusher.PushContext(pushCtx); err != nil {
		slog.Error("Push metrics failed",
			slog.Any("error", err),
			slog.String("job", p.cfg.Job))

		return nil
	}

	slog.Debug("Pushed metrics",
		slog.String("job", p.cfg.Job),
		slog.String("instance", p.instance))

	return nil
}

// Registry exposes the private registry so tests can gather the
// recorded samples.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// sanitizeLabel trims a label value to a sane length and replaces
// control characters that would corrupt the text exposition format.
func sanitizeLabel(value string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}

		return r
	}, value)

	runes := []rune(clean)
	if len(runes) > maxLabelLen {
		return string(runes[:maxLabelLen])
	}

	return clean
}
