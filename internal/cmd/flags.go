// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package cmd

import (
	"flag"
	"fmt"
	"io"
	"runtime/debug"
)

const (
	name = "forge"

	usageMessage = `Usage of 'forge':
    forge [flags...] command [args...]

Commands:
    selftest
        Run the repository self-test suite and checks.
    recipe <name> [phases...]
        Build an external tool from its recipe. Phases are download,
        build, install. All of them if none are given.
    kmod <kernel_src> <module_src> [install_path]
        Build an out-of-tree kernel module against a kernel tree.
    manifest <file>...
        Validate package manifest files.
    bundle <arch>
        Pack the installed assets of an architecture into an archive.

All settings can also be provided via environment variables or a config
file (see -config).
`
)

type flags struct {
	flagSet *flag.FlagSet

	configPath string
	debug      bool
	version    bool

	command string
	args    []string
}

func newFlags(output io.Writer) *flags {
	flags := &flags{}

	flags.initFlagSet(output)

	return flags
}

func (f *flags) ParseArgs(args []string) error {
	// Parses arguments up to the first one that is not prefixed with a "-"
	// or is "--".
	err := f.flagSet.Parse(args)
	if err != nil {
		return &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.version {
		err := f.printVersionInformation()
		return &ParseArgsError{msg: "version requested", err: err}
	}

	positionalArgs := f.flagSet.Args()

	// First positional argument is the command to run.
	if len(positionalArgs) < 1 {
		return f.fail("no command given", nil)
	}

	f.command = positionalArgs[0]
	f.args = positionalArgs[1:]

	return f.validateCommand()
}

// validateCommand checks command name and argument arity so usage errors
// surface before any work is done.
func (f *flags) validateCommand() error {
	switch f.command {
	case "selftest":
		if len(f.args) != 0 {
			return f.fail("selftest takes no arguments", nil)
		}
	case "recipe":
		if len(f.args) < 1 {
			return f.fail("no recipe name given", nil)
		}
	case "kmod":
		if len(f.args) > 3 {
			return f.fail(
				"kmod takes <kernel_src> <module_src> [install_path]",
				nil,
			)
		}
	case "manifest":
		if len(f.args) < 1 {
			return f.fail("no manifest file given", nil)
		}
	case "bundle":
		if len(f.args) != 1 {
			return f.fail("bundle takes exactly one architecture", nil)
		}
	default:
		return f.fail(
			fmt.Sprintf("%v: %s", ErrUnknownCommand, f.command),
			nil,
		)
	}

	return nil
}

func (f *flags) initFlagSet(output io.Writer) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = f.usage

	flagSet.StringVar(
		&f.configPath,
		"config",
		f.configPath,
		"path to a YAML config file",
	)

	flagSet.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = flagSet
}

// fail fails like flag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(f.flagSet.Output(), "Version: %s\n", buildInfo.Main.Version)

	return ErrHelp
}

func (f *flags) usage() {
	fmt.Fprint(f.flagSet.Output(), usageMessage)
	fmt.Fprintln(f.flagSet.Output(), "\nFlags:")
	f.flagSet.PrintDefaults()
}
