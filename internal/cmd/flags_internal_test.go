// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsParseArgs(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		expectedCommand string
		expectedArgs    []string
		expectedErr     error
	}{
		{
			name:        "help",
			args:        []string{"-help"},
			expectedErr: ErrHelp,
		},
		{
			name:        "version",
			args:        []string{"-version"},
			expectedErr: ErrHelp,
		},
		{
			name:        "unknown flag",
			args:        []string{"-nosuchflag"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "no command",
			args:        []string{},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "unknown command",
			args:        []string{"frobnicate"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "selftest with arguments",
			args:        []string{"selftest", "now"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "recipe without name",
			args:        []string{"recipe"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "kmod with too many arguments",
			args:        []string{"kmod", "a", "b", "c", "d"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "manifest without files",
			args:        []string{"manifest"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "bundle without architecture",
			args:        []string{"bundle"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:            "selftest",
			args:            []string{"selftest"},
			expectedCommand: "selftest",
			expectedArgs:    []string{},
		},
		{
			name:            "recipe with phases",
			args:            []string{"-debug", "recipe", "busybox", "build"},
			expectedCommand: "recipe",
			expectedArgs:    []string{"busybox", "build"},
		},
		{
			name:            "kmod without arguments",
			args:            []string{"kmod"},
			expectedCommand: "kmod",
			expectedArgs:    []string{},
		},
		{
			name:            "kmod with install path",
			args:            []string{"kmod", "/usr/src/linux", "./mod", "/tmp/out"},
			expectedCommand: "kmod",
			expectedArgs:    []string{"/usr/src/linux", "./mod", "/tmp/out"},
		},
		{
			name:            "flag parsing stops at the command",
			args:            []string{"manifest", "-debug"},
			expectedCommand: "manifest",
			expectedArgs:    []string{"-debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFlags(io.Discard)

			err := flags.ParseArgs(tt.args)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr != nil {
				return
			}

			assert.Equal(t, tt.expectedCommand, flags.command)
			assert.Equal(t, tt.expectedArgs, flags.args)
		})
	}
}

func TestFlagsUsage(t *testing.T) {
	var output bytes.Buffer

	flags := newFlags(&output)
	flags.usage()

	assert.Contains(t, output.String(), "Usage of 'forge'")
	assert.Contains(t, output.String(), "kmod <kernel_src> <module_src>")
	assert.Contains(t, output.String(), "-config")
}
