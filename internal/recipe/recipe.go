// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package recipe builds tool binaries for target architectures from pinned
// upstream sources.
//
// A recipe is a YAML document describing where the source comes from, how it
// is configured and built, and which artifacts end up in the asset tree. A
// small set of recipes is compiled in; a recipe directory in the lab
// repository takes precedence, so recipes can be fixed without rebuilding
// forge.
package recipe

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed recipes/*.yaml
var builtin embed.FS

// Recipe describes how to produce the assets of a single tool.
type Recipe struct {
	// Name of the tool. Used as checkout directory, asset name and recipe
	// file name.
	Name string `yaml:"name"`
	// Where the source comes from.
	Source Source `yaml:"source"`
	// Host tools that must be present before the build starts.
	Requires []string `yaml:"requires"`
	// How the source is configured and built.
	Build Build `yaml:"build"`
	// What ends up in the asset tree.
	Install Install `yaml:"install"`
}

// Source pins the upstream revision a recipe builds from.
type Source struct {
	// Repository URL passed to git.
	Repo string `yaml:"repo"`
	// Tag or branch to fetch and check out. Required, builds are pinned.
	Ref string `yaml:"ref"`
	// History depth for the fetch. Zero fetches everything.
	Depth int `yaml:"depth"`
}

// Build describes the configure and make steps of a recipe.
type Build struct {
	// Command that generates the initial build configuration, run in the
	// source directory. Typically "make defconfig".
	Configure []string `yaml:"configure"`
	// Build configuration file the config overrides are applied to,
	// relative to the source directory. Defaults to ".config".
	ConfigFile string `yaml:"configFile"`
	// KEY=value overrides applied to the configuration file. Values may
	// reference ${ARCH} and ${CROSS_COMPILE}.
	Config []string `yaml:"config"`
	// Make targets to build. Empty builds the default target.
	Targets []string `yaml:"targets"`
	// Parallel make jobs. Defaults to 4.
	Jobs int `yaml:"jobs"`
}

// Install lists the build outputs that are copied into the asset tree.
type Install struct {
	// Binaries installed under bin/, executable.
	Binaries []Artifact `yaml:"binaries"`
	// License and readme files installed under doc/<name>/.
	Docs []string `yaml:"docs"`
}

// Artifact is a single built file.
type Artifact struct {
	// Path of the file relative to the source directory.
	Path string `yaml:"path"`
	// Name to install the file under. Defaults to the base of Path.
	Name string `yaml:"name"`
}

const defaultJobs = 4

// Load reads and validates a recipe document.
func Load(r io.Reader) (*Recipe, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var rec Recipe

	if err := decoder.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}

	if rec.Build.Jobs == 0 {
		rec.Build.Jobs = defaultJobs
	}

	if rec.Build.ConfigFile == "" {
		rec.Build.ConfigFile = ".config"
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Find loads the named recipe. A <name>.yaml file in dir wins over the
// compiled-in recipe of the same name. The recipe must agree about its own
// name.
func Find(dir, name string) (*Recipe, error) {
	rec, err := findRecipe(dir, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}

	if err != nil {
		return nil, err
	}

	if rec.Name != name {
		return nil, fmt.Errorf("%w: file %s declares %q",
			ErrRecipeNameMismatch, name, rec.Name)
	}

	return rec, nil
}

func findRecipe(dir, name string) (*Recipe, error) {
	if dir != "" {
		rec, err := findIn(os.DirFS(dir), name)
		if !errors.Is(err, fs.ErrNotExist) {
			return rec, err
		}
	}

	return findIn(builtin, "recipes/"+name)
}

func findIn(fsys fs.FS, path string) (*Recipe, error) {
	file, err := fsys.Open(path + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("open recipe: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks the fields a recipe cannot work without.
func (r *Recipe) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%w: name must be set", ErrRecipeInvalid)
	case strings.ContainsAny(r.Name, "/\\") || r.Name != filepath.Base(r.Name):
		return fmt.Errorf("%w: name must not contain path separators",
			ErrRecipeInvalid)
	case r.Source.Repo == "":
		return fmt.Errorf("%w: source.repo must be set", ErrRecipeInvalid)
	case r.Source.Ref == "":
		return fmt.Errorf("%w: source.ref must pin a revision", ErrRecipeInvalid)
	case r.Source.Depth < 0:
		return fmt.Errorf("%w: source.depth must not be negative",
			ErrRecipeInvalid)
	case r.Build.Jobs < 1:
		return fmt.Errorf("%w: build.jobs must be positive", ErrRecipeInvalid)
	}

	for _, artifact := range r.Install.Binaries {
		if artifact.Path == "" {
			return fmt.Errorf("%w: install.binaries entry without path",
				ErrRecipeInvalid)
		}
	}

	return nil
}

// InstallName returns the asset name of the artifact.
func (a Artifact) InstallName() string {
	if a.Name != "" {
		return a.Name
	}

	return filepath.Base(a.Path)
}
