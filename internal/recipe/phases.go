// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/forgelab/forge/internal/asset"
	"github.com/forgelab/forge/internal/git"
	"github.com/forgelab/forge/internal/kconfig"
	"github.com/forgelab/forge/internal/metrics"
	"github.com/forgelab/forge/internal/proc"
	"github.com/forgelab/forge/internal/sys"
)

// Phase is one stage of a recipe pipeline.
type Phase string

const (
	PhaseDownload Phase = "download"
	PhaseBuild    Phase = "build"
	PhaseInstall  Phase = "install"
)

// DefaultPhases runs a recipe end to end.
var DefaultPhases = []Phase{PhaseDownload, PhaseBuild, PhaseInstall}

// ParsePhases parses phase arguments, keeping their order. Without
// arguments, [DefaultPhases] is returned.
func ParsePhases(args []string) ([]Phase, error) {
	if len(args) == 0 {
		return DefaultPhases, nil
	}

	phases := make([]Phase, 0, len(args))

	for _, arg := range args {
		phase := Phase(arg)

		switch phase {
		case PhaseDownload, PhaseBuild, PhaseInstall:
			phases = append(phases, phase)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownPhase, arg)
		}
	}

	return phases, nil
}

// Pipeline executes recipe phases against a workspace. Phases fail fast and
// leave whatever state they produced so far in place for inspection; there
// is no rollback.
type Pipeline struct {
	Recipe *Recipe
	// Architecture the tool is built for.
	Arch sys.Arch
	// Directory sources are checked out under, one subdirectory per recipe.
	SrcRoot string
	// Asset tree the install phase copies into.
	Assets asset.Dir
	// Toolchain prefix override. Derived from Arch if empty.
	CrossCompile string
	// Host overrides host architecture detection.
	Host sys.Arch
	// Additional environment for build commands.
	Env []string
	// Per-phase duration reporting. Optional.
	Metrics metrics.Collector
	// Stdout of build commands. If not set, os.Stdout will be used.
	OutWriter io.Writer
	// Stderr of build commands. If not set, os.Stderr will be used.
	ErrWriter io.Writer
}

// SourceDir returns the checkout directory of the recipe.
func (p *Pipeline) SourceDir() string {
	return filepath.Join(p.SrcRoot, p.Recipe.Name)
}

// Run executes the given phases in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context, phases []Phase) error {
	for _, phase := range phases {
		start := time.Now()

		err := p.runPhase(ctx, phase)
		p.collector().RecordStep("recipe", p.Recipe.Name+"/"+string(phase),
			time.Since(start), err == nil)

		if err != nil {
			return fmt.Errorf("%s %s: %w", p.Recipe.Name, phase, err)
		}

		slog.Info("Phase done",
			slog.String("recipe", p.Recipe.Name),
			slog.String("phase", string(phase)),
			slog.Duration("took", time.Since(start)),
		)
	}

	return nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase Phase) error {
	switch phase {
	case PhaseDownload:
		return p.Download(ctx)
	case PhaseBuild:
		return p.Build(ctx)
	case PhaseInstall:
		return p.Install()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}
}

// Download fetches the pinned source revision into the source directory.
//
// The directory must not exist yet. A present tree, complete or not, is
// never reused or removed; delete it to download again.
func (p *Pipeline) Download(ctx context.Context) error {
	dir := p.SourceDir()

	_, err := os.Stat(dir)
	if err == nil {
		return fmt.Errorf("%w: %s (remove it to download again)",
			ErrSourceExists, dir)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat source dir: %w", err)
	}

	if err := os.MkdirAll(p.SrcRoot, 0o755); err != nil {
		return fmt.Errorf("create source root: %w", err)
	}

	src := p.Recipe.Source

	if err := git.Clone(ctx, src.Repo, dir, src.Ref, src.Depth); err != nil {
		return err
	}

	return git.Checkout(ctx, dir, src.Ref)
}

// Build configures and compiles the downloaded source in place.
func (p *Pipeline) Build(ctx context.Context) error {
	for _, tool := range p.Recipe.Requires {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingTool, tool)
		}
	}

	dir, err := p.sourceDirChecked()
	if err != nil {
		return err
	}

	cross, err := p.crossPrefix()
	if err != nil {
		return err
	}

	vars := map[string]string{
		"ARCH":          p.Arch.String(),
		"CROSS_COMPILE": cross,
	}

	if err := p.configure(ctx, dir, cross, vars); err != nil {
		return err
	}

	if err := p.patchConfig(dir, vars); err != nil {
		return err
	}

	return p.make(ctx, dir, cross, vars)
}

func (p *Pipeline) configure(
	ctx context.Context,
	dir, cross string,
	vars map[string]string,
) error {
	argv := p.Recipe.Build.Configure
	if len(argv) == 0 {
		return nil
	}

	argv, err := expandAll(argv, vars)
	if err != nil {
		return err
	}

	cmd := proc.Command{
		Path:      argv[0],
		Args:      argv[1:],
		Dir:       dir,
		Env:       p.buildEnv(cross),
		OutWriter: p.OutWriter,
		ErrWriter: p.ErrWriter,
	}

	return cmd.Run(ctx)
}

func (p *Pipeline) patchConfig(dir string, vars map[string]string) error {
	raw := p.Recipe.Build.Config
	if len(raw) == 0 {
		return nil
	}

	expanded, err := expandAll(raw, vars)
	if err != nil {
		return err
	}

	opts, err := kconfig.ParseOptions(expanded)
	if err != nil {
		return err
	}

	return kconfig.Apply(filepath.Join(dir, p.Recipe.Build.ConfigFile), opts...)
}

func (p *Pipeline) make(
	ctx context.Context,
	dir, cross string,
	vars map[string]string,
) error {
	targets, err := expandAll(p.Recipe.Build.Targets, vars)
	if err != nil {
		return err
	}

	args := []string{"-C", dir, "-j" + strconv.Itoa(p.Recipe.Build.Jobs)}
	args = append(args, targets...)

	cmd := proc.Command{
		Path:      "make",
		Args:      args,
		Env:       p.buildEnv(cross),
		OutWriter: p.OutWriter,
		ErrWriter: p.ErrWriter,
	}

	return cmd.Run(ctx)
}

// Install copies the declared artifacts into the asset tree. Installs over
// previous assets of the same tool.
func (p *Pipeline) Install() error {
	dir, err := p.sourceDirChecked()
	if err != nil {
		return err
	}

	binaries := p.Recipe.Install.Binaries
	if len(binaries) == 0 {
		return ErrNoArtifacts
	}

	for _, artifact := range binaries {
		installed, err := p.Assets.InstallBinary(p.Arch,
			filepath.Join(dir, artifact.Path), artifact.InstallName())
		if err != nil {
			return err
		}

		slog.Info("Installed binary", slog.String("path", installed))
	}

	docs := make([]string, 0, len(p.Recipe.Install.Docs))
	for _, doc := range p.Recipe.Install.Docs {
		docs = append(docs, filepath.Join(dir, doc))
	}

	return p.Assets.InstallDocs(p.Arch, p.Recipe.Name, docs...)
}

func (p *Pipeline) sourceDirChecked() (string, error) {
	dir := p.SourceDir()

	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceMissing, dir)
	}

	return dir, nil
}

// crossPrefix returns the toolchain prefix for the target architecture, or
// the explicit override. Empty for native builds.
func (p *Pipeline) crossPrefix() (string, error) {
	if p.CrossCompile != "" {
		return p.CrossCompile, nil
	}

	host := p.Host
	if host == "" {
		detected, err := sys.Host()
		if err != nil {
			return "", err
		}

		host = detected
	}

	if p.Arch == host {
		return "", nil
	}

	return p.Arch.CrossCompile()
}

// buildEnv merges the pipeline environment with the toolchain variables.
// Both are always set, so a stray CROSS_COMPILE in the inherited environment
// cannot leak into a native build. Deliberate overrides go through
// [Pipeline.CrossCompile] instead.
func (p *Pipeline) buildEnv(cross string) []string {
	env := append([]string{}, p.Env...)

	return append(env,
		"ARCH="+p.Arch.String(),
		"CROSS_COMPILE="+cross,
	)
}

func (p *Pipeline) collector() metrics.Collector {
	if p.Metrics == nil {
		return metrics.Nop()
	}

	return p.Metrics
}

// expand substitutes ${ARCH}-style references in s from vars. Referencing a
// variable that is not provided is an error, not an empty string.
func expand(s string, vars map[string]string) (string, error) {
	var missing []string

	expanded := os.Expand(s, func(key string) string {
		value, ok := vars[key]
		if !ok {
			missing = append(missing, key)
		}

		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %v", ErrUnknownVar, missing)
	}

	return expanded, nil
}

func expandAll(raw []string, vars map[string]string) ([]string, error) {
	expanded := make([]string, 0, len(raw))

	for _, s := range raw {
		e, err := expand(s, vars)
		if err != nil {
			return nil, err
		}

		expanded = append(expanded, e)
	}

	return expanded, nil
}
