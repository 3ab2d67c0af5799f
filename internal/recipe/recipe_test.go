// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package recipe_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgelab/forge/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRecipe = `
name: hexdump
source:
  repo: https://example.com/hexdump.git
  ref: v2.1
  depth: 1
requires: [make]
build:
  configure: [make, defconfig]
  config: [CONFIG_STATIC=y]
  targets: [hexdump]
install:
  binaries:
    - path: out/hexdump
  docs: [LICENSE]
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		check       func(t *testing.T, rec *recipe.Recipe)
		expectedErr error
	}{
		{
			name:  "valid recipe with defaults",
			input: validRecipe,
			check: func(t *testing.T, rec *recipe.Recipe) {
				t.Helper()
				assert.Equal(t, "hexdump", rec.Name)
				assert.Equal(t, 4, rec.Build.Jobs)
				assert.Equal(t, ".config", rec.Build.ConfigFile)
				assert.Equal(t, 1, rec.Source.Depth)
			},
		},
		{
			name: "explicit jobs kept",
			input: `
name: tool
source: {repo: https://example.com/t.git, ref: v1}
build: {jobs: 2}
`,
			check: func(t *testing.T, rec *recipe.Recipe) {
				t.Helper()
				assert.Equal(t, 2, rec.Build.Jobs)
			},
		},
		{
			name:        "missing name",
			input:       "source: {repo: https://example.com/t.git, ref: v1}\n",
			expectedErr: recipe.ErrRecipeInvalid,
		},
		{
			name:        "name with path separator",
			input:       "name: a/b\nsource: {repo: r, ref: v1}\n",
			expectedErr: recipe.ErrRecipeInvalid,
		},
		{
			name:        "missing repo",
			input:       "name: tool\nsource: {ref: v1}\n",
			expectedErr: recipe.ErrRecipeInvalid,
		},
		{
			name:        "missing ref",
			input:       "name: tool\nsource: {repo: https://example.com/t.git}\n",
			expectedErr: recipe.ErrRecipeInvalid,
		},
		{
			name: "negative depth",
			input: `
name: tool
source: {repo: https://example.com/t.git, ref: v1, depth: -1}
`,
			expectedErr: recipe.ErrRecipeInvalid,
		},
		{
			name: "binary without path",
			input: `
name: tool
source: {repo: https://example.com/t.git, ref: v1}
install:
  binaries:
    - name: tool
`,
			expectedErr: recipe.ErrRecipeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := recipe.Load(strings.NewReader(tt.input))

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, rec)
		})
	}
}

func TestLoadUnknownField(t *testing.T) {
	_, err := recipe.Load(strings.NewReader("name: tool\nbogus: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestArtifactInstallName(t *testing.T) {
	assert.Equal(t, "hexdump",
		recipe.Artifact{Path: "out/hexdump"}.InstallName())
	assert.Equal(t, "hd",
		recipe.Artifact{Path: "out/hexdump", Name: "hd"}.InstallName())
}

func TestFindBuiltin(t *testing.T) {
	rec, err := recipe.Find("", "busybox")
	require.NoError(t, err)

	assert.Equal(t, "busybox", rec.Name)
	assert.Equal(t, "1_36_1", rec.Source.Ref)
	assert.Equal(t, 1, rec.Source.Depth)
	assert.Contains(t, rec.Build.Config, "CONFIG_STATIC=y")
	assert.NotEmpty(t, rec.Install.Binaries)
	assert.Contains(t, rec.Install.Docs, "LICENSE")
}

func TestFindDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()

	override := strings.ReplaceAll(validRecipe, "hexdump", "busybox")
	err := os.WriteFile(filepath.Join(dir, "busybox.yaml"), []byte(override), 0o644)
	require.NoError(t, err)

	rec, err := recipe.Find(dir, "busybox")
	require.NoError(t, err)

	assert.Equal(t, "v2.1", rec.Source.Ref)
}

func TestFindFallsBackToBuiltin(t *testing.T) {
	rec, err := recipe.Find(t.TempDir(), "busybox")
	require.NoError(t, err)

	assert.Equal(t, "1_36_1", rec.Source.Ref)
}

func TestFindNotFound(t *testing.T) {
	_, err := recipe.Find(t.TempDir(), "no-such-tool")
	require.ErrorIs(t, err, recipe.ErrRecipeNotFound)
}

func TestFindNameMismatch(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(validRecipe), 0o644)
	require.NoError(t, err)

	_, err = recipe.Find(dir, "other")
	require.ErrorIs(t, err, recipe.ErrRecipeNameMismatch)
}

func TestParsePhases(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    []recipe.Phase
		expectedErr error
	}{
		{
			name:     "no args runs everything",
			args:     nil,
			expected: recipe.DefaultPhases,
		},
		{
			name:     "single phase",
			args:     []string{"build"},
			expected: []recipe.Phase{recipe.PhaseBuild},
		},
		{
			name:     "order preserved",
			args:     []string{"install", "download"},
			expected: []recipe.Phase{recipe.PhaseInstall, recipe.PhaseDownload},
		},
		{
			name:        "unknown phase",
			args:        []string{"compile"},
			expectedErr: recipe.ErrUnknownPhase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phases, err := recipe.ParsePhases(tt.args)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr == nil {
				assert.Equal(t, tt.expected, phases)
			}
		})
	}
}
