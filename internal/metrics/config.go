// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package metrics

import (
	"net/url"
	"time"
)

// Config configures metrics collection and the push gateway target.
type Config struct {
	// Enabled turns metrics collection on. Disabled by default.
	Enabled bool `yaml:"enabled" env:"FORGE_METRICS_ENABLED" env-default:"false"`

	// PushURL is the base URL of the Prometheus push gateway, like
	// "http://pushgateway:9091".
	PushURL string `yaml:"pushURL" env:"FORGE_METRICS_PUSH_URL"`

	// Job is the job name the metrics are grouped under.
	Job string `yaml:"job" env:"FORGE_METRICS_JOB" env-default:"forge"`

	// Timeout bounds a single push request.
	Timeout time.Duration `yaml:"timeout" env:"FORGE_METRICS_TIMEOUT" env-default:"10s"`

	// Instance overrides the instance grouping label. Empty means the
	// hostname is used.
	Instance string `yaml:"instance" env:"FORGE_METRICS_INSTANCE"`
}

// Validate checks the configuration. A disabled configuration is
// always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.PushURL == "" {
		return ErrPushURLMissing
	}

	u, err := url.Parse(c.PushURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPushURLInvalid
	}

	if c.Job == "" {
		return ErrJobMissing
	}

	if c.Timeout <= 0 {
		return ErrTimeoutInvalid
	}

	return nil
}
