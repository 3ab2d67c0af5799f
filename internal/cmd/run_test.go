// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forgelab/forge/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 30 * time.Second

const validManifest = `name = "wa-kernel-tools"
version = "1.0.3"
summary = "Kernel build helpers for workload automation"

[entrypoint]
command = "wa-kmod"
target = "bin/wa-kmod"

[dependencies]
devlib = ">=1.3"
`

type output struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func runCmd(t *testing.T, args ...string) (int, *output) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	out := &output{}
	rc := cmd.Run(ctx, append([]string{"forge"}, args...), cmd.IO{
		Stdin:  strings.NewReader(""),
		Stdout: &out.stdout,
		Stderr: &out.stderr,
	})

	return rc, out
}

// pinEnv fixes all configuration environment variables so tests do not
// depend on the host environment.
func pinEnv(t *testing.T, home string) {
	t.Helper()

	t.Setenv("FORGE_HOME", home)

	for _, key := range []string{
		"FORGE_ARCH_ASSETS",
		"FORGE_RECIPES",
		"FORGE_SRC",
		"FORGE_HOST_ABI",
		"ARCH",
		"CROSS_COMPILE",
		"KERNEL_SRC",
		"MODULE_SRC",
		"INSTALL_MOD_PATH",
	} {
		t.Setenv(key, "")
	}
}

// stubMake puts a fake make on PATH so build commands can run without a
// toolchain.
func stubMake(t *testing.T, script string) {
	t.Helper()

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "make"), []byte(script), 0o755)
	require.NoError(t, err)

	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunHelp(t *testing.T) {
	rc, out := runCmd(t, "-help")

	assert.Equal(t, 0, rc)
	assert.Contains(t, out.stderr.String(), "Usage of 'forge'")
}

func TestRunVersion(t *testing.T) {
	rc, out := runCmd(t, "-version")

	assert.Equal(t, 0, rc)
	assert.Contains(t, out.stderr.String(), "Version:")
}

func TestRunNoCommand(t *testing.T) {
	rc, out := runCmd(t)

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "no command given")
	assert.Contains(t, out.stderr.String(), "Usage of 'forge'")
}

func TestRunUnknownCommand(t *testing.T) {
	rc, out := runCmd(t, "frobnicate")

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "unknown command")
}

func TestRunManifest(t *testing.T) {
	pinEnv(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "wa-tools.toml")
	writeFile(t, path, validManifest)

	rc, out := runCmd(t, "manifest", path)

	assert.Equal(t, 0, rc)
	assert.Contains(t, out.stdout.String(), "wa-kernel-tools 1.0.3")
}

func TestRunManifestInvalid(t *testing.T) {
	pinEnv(t, t.TempDir())

	path := filepath.Join(t.TempDir(), "broken.toml")
	writeFile(t, path, `name = "broken"`)

	rc, out := runCmd(t, "manifest", path)

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "Error [forge]")
	assert.Contains(t, out.stderr.String(), "manifest invalid")
}

func TestRunBundle(t *testing.T) {
	home := t.TempDir()
	pinEnv(t, home)

	writeFile(t, filepath.Join(home, "assets", "arm64", "bin", "busybox"),
		"binary")

	rc, out := runCmd(t, "bundle", "aarch64")

	require.Equal(t, 0, rc, out.stderr.String())

	path := strings.TrimSpace(out.stdout.String())
	assert.Equal(t,
		filepath.Join(home, "assets", "bundles", "arm64.cpio.gz"), path)
	assert.FileExists(t, path)
}

func TestRunBundleNoAssets(t *testing.T) {
	pinEnv(t, t.TempDir())

	rc, out := runCmd(t, "bundle", "arm64")

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "no assets for architecture")
}

func TestRunSelftest(t *testing.T) {
	home := t.TempDir()
	pinEnv(t, home)

	configPath := filepath.Join(t.TempDir(), "forge.yaml")
	writeFile(t, configPath, `selftest:
  steps:
    - name: greet
      run: ["sh", "-c", "echo hello from selftest"]
`)

	rc, out := runCmd(t, "-config", configPath, "selftest")

	require.Equal(t, 0, rc, out.stderr.String())
	assert.Contains(t, out.stdout.String(), "hello from selftest")
}

func TestRunSelftestStepExitCode(t *testing.T) {
	home := t.TempDir()
	pinEnv(t, home)

	configPath := filepath.Join(t.TempDir(), "forge.yaml")
	writeFile(t, configPath, `selftest:
  steps:
    - name: failing
      run: ["sh", "-c", "exit 9"]
`)

	rc, out := runCmd(t, "-config", configPath, "selftest")

	assert.Equal(t, 9, rc)
	assert.Contains(t, out.stderr.String(), "step failing")
}

func TestRunKmod(t *testing.T) {
	pinEnv(t, t.TempDir())
	t.Setenv("ARCH", "aarch64")
	t.Setenv("CROSS_COMPILE", "aarch64-linux-gnu-")

	stubMake(t, `#!/bin/sh
{
	echo "KERNEL_SRC=$KERNEL_SRC"
	echo "MODULE_SRC=$MODULE_SRC"
	echo "INSTALL_MOD_PATH=$INSTALL_MOD_PATH"
	echo "ARCH=$ARCH"
	echo "CROSS_COMPILE=$CROSS_COMPILE"
} > "$MODULE_SRC/kmod-env"
`)

	kernelDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	moduleDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	rc, out := runCmd(t, "kmod", kernelDir, moduleDir)

	require.Equal(t, 0, rc, out.stderr.String())

	dump, err := os.ReadFile(filepath.Join(moduleDir, "kmod-env"))
	require.NoError(t, err)

	expected := "KERNEL_SRC=" + kernelDir + "\n" +
		"MODULE_SRC=" + moduleDir + "\n" +
		"INSTALL_MOD_PATH=" + moduleDir + "\n" +
		"ARCH=arm64\n" +
		"CROSS_COMPILE=aarch64-linux-gnu-\n"
	assert.Equal(t, expected, string(dump))
}

func TestRunKmodExitCode(t *testing.T) {
	pinEnv(t, t.TempDir())
	t.Setenv("CROSS_COMPILE", "aarch64-linux-gnu-")

	stubMake(t, "#!/bin/sh\nexit 7\n")

	rc, out := runCmd(t, "kmod", t.TempDir(), t.TempDir())

	assert.Equal(t, 7, rc)
	assert.Contains(t, out.stderr.String(), "Error [forge]")
}

func TestRunKmodMissingSource(t *testing.T) {
	pinEnv(t, t.TempDir())

	rc, out := runCmd(t, "kmod", "/does/not/exist", t.TempDir())

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "kernel source")
}

func TestRunRecipeUnknown(t *testing.T) {
	pinEnv(t, t.TempDir())

	rc, out := runCmd(t, "recipe", "nosuchtool")

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "recipe not found")
}

func TestRunRecipeUnknownPhase(t *testing.T) {
	pinEnv(t, t.TempDir())

	rc, out := runCmd(t, "recipe", "busybox", "deploy")

	assert.Equal(t, -1, rc)
	assert.Contains(t, out.stderr.String(), "unknown phase")
}

func TestRunRecipeBuildInstall(t *testing.T) {
	home := t.TempDir()
	pinEnv(t, home)

	recipesDir := t.TempDir()
	writeFile(t, filepath.Join(recipesDir, "hello.yaml"), `name: hello
source:
  repo: https://example.com/hello.git
  ref: v1
requires: [make]
build:
  targets: [hello]
install:
  binaries:
    - path: hello
`)

	srcRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(srcRoot, "hello"), 0o755))

	t.Setenv("FORGE_RECIPES", recipesDir)
	t.Setenv("FORGE_SRC", srcRoot)
	t.Setenv("ARCH", "arm64")
	t.Setenv("CROSS_COMPILE", "aarch64-linux-gnu-")

	// Called as: make -C <dir> -j4 [targets...]
	stubMake(t, `#!/bin/sh
dir="$2"
shift 3
for target in "$@"; do
	touch "$dir/$target"
done
`)

	rc, out := runCmd(t, "recipe", "hello", "build", "install")

	require.Equal(t, 0, rc, out.stderr.String())

	installed := filepath.Join(home, "assets", "arm64", "bin", "hello")
	require.FileExists(t, installed)

	info, err := os.Stat(installed)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}
