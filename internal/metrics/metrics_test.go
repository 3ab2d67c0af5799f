// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgelab/forge/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() metrics.Config {
	return metrics.Config{
		Enabled:  true,
		PushURL:  "http://localhost:9091",
		Job:      "forge",
		Timeout:  10 * time.Second,
		Instance: "test-host",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*metrics.Config)
		expectedErr error
	}{
		{
			name:   "valid",
			mutate: func(_ *metrics.Config) {},
		},
		{
			name: "disabled is always valid",
			mutate: func(c *metrics.Config) {
				*c = metrics.Config{}
			},
		},
		{
			name: "push URL missing",
			mutate: func(c *metrics.Config) {
				c.PushURL = ""
			},
			expectedErr: metrics.ErrPushURLMissing,
		},
		{
			name: "push URL without host",
			mutate: func(c *metrics.Config) {
				c.PushURL = "http://"
			},
			expectedErr: metrics.ErrPushURLInvalid,
		},
		{
			name: "push URL without scheme",
			mutate: func(c *metrics.Config) {
				c.PushURL = "localhost:9091"
			},
			expectedErr: metrics.ErrPushURLInvalid,
		},
		{
			name: "job missing",
			mutate: func(c *metrics.Config) {
				c.Job = ""
			},
			expectedErr: metrics.ErrJobMissing,
		},
		{
			name: "timeout not positive",
			mutate: func(c *metrics.Config) {
				c.Timeout = 0
			},
			expectedErr: metrics.ErrTimeoutInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestNewDisabled(t *testing.T) {
	collector, err := metrics.New(metrics.Config{})
	require.NoError(t, err)

	collector.RecordStep("recipe", "busybox/build", time.Second, true)
	require.NoError(t, collector.Push(context.Background()))
}

func TestNewInvalid(t *testing.T) {
	_, err := metrics.New(metrics.Config{Enabled: true})
	require.ErrorIs(t, err, metrics.ErrPushURLMissing)
}

func TestPrometheusRecordStep(t *testing.T) {
	collector, err := metrics.NewPrometheus(validConfig())
	require.NoError(t, err)

	collector.RecordStep("recipe", "busybox/build", 1500*time.Millisecond, true)
	collector.RecordStep("recipe", "busybox/install", 10*time.Millisecond, false)

	families, err := collector.Registry().Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, family := range families {
		found[family.GetName()] = true
	}

	assert.True(t, found["forge_step_duration_seconds"])
	assert.True(t, found["forge_step_success_total"])
	assert.True(t, found["forge_step_error_total"])
}

func TestPrometheusPush(t *testing.T) {
	var method, path string

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			method = r.Method
			path = r.URL.Path

			w.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	cfg := validConfig()
	cfg.PushURL = server.URL

	collector, err := metrics.NewPrometheus(cfg)
	require.NoError(t, err)

	collector.RecordStep("selftest", "build", time.Second, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, collector.Push(ctx))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/forge/instance/test-host", path)
}

func TestPrometheusPushFailureSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	defer server.Close()

	cfg := validConfig()
	cfg.PushURL = server.URL

	collector, err := metrics.NewPrometheus(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, collector.Push(ctx))
}
