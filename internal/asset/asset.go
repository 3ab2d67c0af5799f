// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package asset manages the architecture-keyed tree of prebuilt tool
// binaries and their licensing documents. Binaries live under
// <root>/<arch>/bin, documents under <root>/<arch>/doc/<tool>. The tree can
// be packed into per-architecture cpio bundles for distribution to targets.
package asset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/forgelab/forge/internal/sys"
)

const (
	binMode = 0o755
	dirMode = 0o755
)

// Dir is the root of an asset tree.
type Dir struct {
	Root string
}

// ArchDir returns the asset directory for arch.
func (d Dir) ArchDir(arch sys.Arch) string {
	return filepath.Join(d.Root, arch.String())
}

// BinDir returns the binary directory for arch.
func (d Dir) BinDir(arch sys.Arch) string {
	return filepath.Join(d.ArchDir(arch), "bin")
}

// DocDir returns the document directory of the tool for arch.
func (d Dir) DocDir(arch sys.Arch, tool string) string {
	return filepath.Join(d.ArchDir(arch), "doc", tool)
}

// InstallBinary copies the file at src into the binary directory for arch
// under the given name, marked executable. Parent directories are created as
// needed. Returns the installed path.
func (d Dir) InstallBinary(arch sys.Arch, src, name string) (string, error) {
	dir := d.BinDir(arch)

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("create bin dir: %w", err)
	}

	dst := filepath.Join(dir, name)

	if err := copyFile(dst, src, binMode); err != nil {
		return "", err
	}

	return dst, nil
}

// InstallDocs copies the given files into the document directory of the tool
// for arch, keeping their base names and modes. Every file must exist; a
// tool that ships without its license is not installable.
func (d Dir) InstallDocs(arch sys.Arch, tool string, files ...string) error {
	dir := d.DocDir(arch, tool)

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create doc dir: %w", err)
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return fmt.Errorf("stat doc: %w", err)
		}

		dst := filepath.Join(dir, filepath.Base(file))

		if err := copyFile(dst, file, info.Mode().Perm()); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(dst, src string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()

		return fmt.Errorf("copy to %s: %w", dst, err)
	}

	// The file may exist already with wider or narrower permissions.
	if err := dstFile.Chmod(mode); err != nil {
		_ = dstFile.Close()

		return fmt.Errorf("chmod %s: %w", dst, err)
	}

	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return nil
}
