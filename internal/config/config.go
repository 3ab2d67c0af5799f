// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package config loads the forge configuration.
//
// Configuration comes from an optional YAML file plus environment
// variables, with the environment taking precedence. The environment
// names keep the spelling the wrapped build systems consume, like ARCH
// and CROSS_COMPILE, so an existing CI environment keeps working
// unchanged.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/forgelab/forge/internal/logging"
	"github.com/forgelab/forge/internal/metrics"
	"github.com/forgelab/forge/internal/selftest"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds everything forge reads from file and environment.
type Config struct {
	// Home is the lab repository root. Self-test steps and repository
	// checks run here, and derived paths default to subdirectories of
	// it.
	Home string `yaml:"home" env:"FORGE_HOME" env-default:"."`
	// AssetsDir is the root of the architecture keyed asset tree.
	// Home/assets if empty.
	AssetsDir string `yaml:"assetsDir" env:"FORGE_ARCH_ASSETS"`
	// RecipesDir holds recipe files taking precedence over the
	// compiled in ones.
	RecipesDir string `yaml:"recipesDir" env:"FORGE_RECIPES"`
	// SrcDir is where recipe sources are downloaded to. Home/src if
	// empty.
	SrcDir string `yaml:"srcDir" env:"FORGE_SRC"`
	// HostABI overrides host architecture detection.
	HostABI string `yaml:"hostABI" env:"FORGE_HOST_ABI"`
	// Arch is the target architecture token for recipe and module
	// builds. The host architecture if empty.
	Arch string `yaml:"arch" env:"ARCH"`
	// CrossCompile is a preset toolchain prefix. If set, it is passed
	// on as is and never derived from the architecture.
	CrossCompile string `yaml:"crossCompile" env:"CROSS_COMPILE"`
	// KernelSrc is the default kernel source tree for module builds.
	KernelSrc string `yaml:"kernelSrc" env:"KERNEL_SRC"`
	// ModuleSrc is the default module source tree for module builds.
	ModuleSrc string `yaml:"moduleSrc" env:"MODULE_SRC"`
	// InstallModPath is the default module install path.
	InstallModPath string `yaml:"installModPath" env:"INSTALL_MOD_PATH"`

	Logging  logging.Config  `yaml:"logging"`
	Metrics  metrics.Config  `yaml:"metrics"`
	Selftest selftest.Config `yaml:"selftest"`
}

// Load reads the configuration file at path and applies environment
// overrides. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}

		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return cfg, nil
}

// AssetRoot returns the configured asset tree root or its default under
// [Config.Home].
func (c *Config) AssetRoot() string {
	if c.AssetsDir != "" {
		return c.AssetsDir
	}

	return filepath.Join(c.Home, "assets")
}

// SourceRoot returns the configured download root or its default under
// [Config.Home].
func (c *Config) SourceRoot() string {
	if c.SrcDir != "" {
		return c.SrcDir
	}

	return filepath.Join(c.Home, "src")
}

// SelftestConfig returns the configured suite, or the default sequence
// if the configuration does not mention the self-test at all.
func (c *Config) SelftestConfig() selftest.Config {
	unset := len(c.Selftest.Steps) == 0 &&
		c.Selftest.Docs.Dir == "" &&
		c.Selftest.Vendored.Dir == ""

	if unset {
		return selftest.DefaultConfig()
	}

	return c.Selftest
}
