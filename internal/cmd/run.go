// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/forgelab/forge/internal/asset"
	"github.com/forgelab/forge/internal/config"
	"github.com/forgelab/forge/internal/kmod"
	"github.com/forgelab/forge/internal/logging"
	"github.com/forgelab/forge/internal/manifest"
	"github.com/forgelab/forge/internal/metrics"
	"github.com/forgelab/forge/internal/proc"
	"github.com/forgelab/forge/internal/recipe"
	"github.com/forgelab/forge/internal/selftest"
	"github.com/forgelab/forge/internal/sys"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	flags := newFlags(cfg.Stderr)

	err := flags.ParseArgs(args[1:])
	if err != nil {
		return handleParseArgsError(err, cfg.Stderr)
	}

	err = run(ctx, flags, cfg)

	return handleRunError(err, cfg.Stderr)
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	if flags.debug {
		conf.Logging.Level = logging.LevelDebug
	}

	setupLogging(conf.Logging, cfg.Stderr)

	collector, err := metrics.New(conf.Metrics)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Push once on exit, even for failed or aborted runs.
	defer func() {
		_ = collector.Push(context.WithoutCancel(ctx))
	}()

	slog.Debug("Running command",
		slog.String("command", flags.command),
		slog.Any("args", flags.args))

	switch flags.command {
	case "selftest":
		return runSelftest(ctx, conf, collector, cfg)
	case "recipe":
		return runRecipe(ctx, flags.args, conf, collector, cfg)
	case "kmod":
		return runKmod(ctx, flags.args, conf, cfg)
	case "manifest":
		return runManifest(flags.args, cfg)
	case "bundle":
		return runBundle(flags.args, conf, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, flags.command)
	}
}

func runSelftest(
	ctx context.Context,
	conf *config.Config,
	collector metrics.Collector,
	cfg IO,
) error {
	suite := selftest.New(conf.Home, conf.SelftestConfig())
	suite.Metrics = collector
	suite.OutWriter = cfg.Stdout
	suite.ErrWriter = cfg.Stderr

	return suite.Run(ctx)
}

func runRecipe(
	ctx context.Context,
	args []string,
	conf *config.Config,
	collector metrics.Collector,
	cfg IO,
) error {
	rec, err := recipe.Find(conf.RecipesDir, args[0])
	if err != nil {
		return err
	}

	phases, err := recipe.ParsePhases(args[1:])
	if err != nil {
		return err
	}

	arch, err := targetArch(conf)
	if err != nil {
		return err
	}

	pipeline := &recipe.Pipeline{
		Recipe:       rec,
		Arch:         arch,
		SrcRoot:      conf.SourceRoot(),
		Assets:       asset.Dir{Root: conf.AssetRoot()},
		CrossCompile: conf.CrossCompile,
		Host:         hostArch(conf),
		Metrics:      collector,
		OutWriter:    cfg.Stdout,
		ErrWriter:    cfg.Stderr,
	}

	return pipeline.Run(ctx, phases)
}

func runKmod(
	ctx context.Context,
	args []string,
	conf *config.Config,
	cfg IO,
) error {
	kernelDir := conf.KernelSrc
	moduleDir := conf.ModuleSrc
	installDir := conf.InstallModPath

	// Positional arguments take precedence over configured defaults.
	if len(args) > 0 {
		kernelDir = args[0]
	}

	if len(args) > 1 {
		moduleDir = args[1]
	}

	if len(args) > 2 {
		installDir = args[2]
	}

	build := &kmod.Build{
		KernelDir:    kernelDir,
		ModuleDir:    moduleDir,
		InstallDir:   installDir,
		Arch:         conf.Arch,
		CrossCompile: conf.CrossCompile,
		Host:         hostArch(conf),
		OutWriter:    cfg.Stdout,
		ErrWriter:    cfg.Stderr,
	}

	return build.Run(ctx)
}

func runManifest(args []string, cfg IO) error {
	for _, path := range args {
		parsed, err := manifest.Load(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cfg.Stdout, "%s: %s\n", path, parsed)
	}

	return nil
}

func runBundle(args []string, conf *config.Config, cfg IO) error {
	dir := asset.Dir{Root: conf.AssetRoot()}

	path, err := dir.Bundle(sys.Normalize(args[0]))
	if err != nil {
		return err
	}

	fmt.Fprintln(cfg.Stdout, path)

	return nil
}

// targetArch resolves the architecture recipes are built for. It falls
// back to the host architecture if none is configured.
func targetArch(conf *config.Config) (sys.Arch, error) {
	if conf.Arch != "" {
		return sys.Normalize(conf.Arch), nil
	}

	if conf.HostABI != "" {
		return sys.Normalize(conf.HostABI), nil
	}

	return sys.Host()
}

func hostArch(conf *config.Config) sys.Arch {
	if conf.HostABI == "" {
		return ""
	}

	return sys.Normalize(conf.HostABI)
}

func setupLogging(conf logging.Config, stderr io.Writer) {
	// Honor the caller's stderr writer. File output is left to the
	// logging package.
	if conf.Output == logging.OutputStderr {
		slog.SetDefault(logging.NewWithWriter(conf, stderr))
		return
	}

	logging.Setup(conf)
}

func handleParseArgsError(err error, stderr io.Writer) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without printing.
	if !errors.Is(err, &ParseArgsError{}) {
		fmt.Fprintf(stderr, "Error [%s]: %v\n", name, err)
	}

	return -1
}

func handleRunError(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	exitCode := -1

	// A command that ran and failed determines the exit code itself.
	var cmdErr *proc.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		exitCode = cmdErr.ExitCode
	}

	fmt.Fprintf(stderr, "Error [%s]: %v\n", name, err)

	return exitCode
}
