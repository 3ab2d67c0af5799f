// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package asset

import (
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/cpio"

	"github.com/forgelab/forge/internal/sys"
)

const numLinks = 2

// Bundle packs the asset tree for arch into a gzip-compressed cpio archive
// at <root>/bundles/<arch>.cpio.gz, replacing any previous bundle. Paths in
// the archive are relative to the architecture directory, so unpacking on a
// target yields bin/ and doc/ directly. Returns the bundle path.
func (d Dir) Bundle(arch sys.Arch) (string, error) {
	srcDir := d.ArchDir(arch)

	if _, err := os.Stat(srcDir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoAssets, arch)
	}

	bundleDir := filepath.Join(d.Root, "bundles")
	if err := os.MkdirAll(bundleDir, dirMode); err != nil {
		return "", fmt.Errorf("create bundle dir: %w", err)
	}

	path := filepath.Join(bundleDir, arch.String()+".cpio.gz")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}

	err = writeBundleFile(file, srcDir)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)

		return "", err
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close bundle: %w", err)
	}

	return path, nil
}

func writeBundleFile(w io.Writer, srcDir string) error {
	gzWriter := gzip.NewWriter(w)

	if err := WriteBundle(gzWriter, srcDir); err != nil {
		return err
	}

	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}

	return nil
}

// WriteBundle writes the directory tree rooted at dir as a cpio archive in
// newc format to w.
func WriteBundle(w io.Writer, dir string) error {
	writer := newBundleWriter(w)
	fsys := os.DirFS(dir)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == "." {
			return nil
		}

		switch {
		case entry.IsDir():
			return writer.writeDirectory(path)
		case entry.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(filepath.Join(dir, path))
			if err != nil {
				return fmt.Errorf("readlink: %w", err)
			}

			return writer.writeLink(path, target)
		default:
			file, err := fsys.Open(path)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			defer file.Close()

			return writer.writeRegular(path, file)
		}
	})
	if err != nil {
		return fmt.Errorf("walk assets: %w", err)
	}

	return writer.close()
}

// bundleWriter wraps [cpio.Writer] with per-entry-type helpers.
type bundleWriter struct {
	cpioWriter *cpio.Writer
}

func newBundleWriter(w io.Writer) *bundleWriter {
	return &bundleWriter{cpio.NewWriter(w)}
}

func (w *bundleWriter) close() error {
	if err := w.cpioWriter.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}

func (w *bundleWriter) writeHeader(hdr *cpio.Header) error {
	if err := w.cpioWriter.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", hdr.Name, err)
	}

	return nil
}

func (w *bundleWriter) writeDirectory(path string) error {
	header := &cpio.Header{
		Name:  path,
		Mode:  cpio.TypeDir | cpio.ModePerm,
		Links: numLinks,
	}

	return w.writeHeader(header)
}

func (w *bundleWriter) writeLink(path, target string) error {
	header := &cpio.Header{
		Name: path,
		Mode: cpio.TypeSymlink | cpio.ModePerm,
		Size: int64(len(target)),
	}

	if err := w.writeHeader(header); err != nil {
		return err
	}

	// Body of a link is the path of the target file.
	if _, err := w.cpioWriter.Write([]byte(target)); err != nil {
		return fmt.Errorf("write body for %s: %w", path, err)
	}

	return nil
}

func (w *bundleWriter) writeRegular(path string, source fs.File) error {
	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("read info: %w", err)
	}

	header, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("create header: %w", err)
	}

	header.Name = path

	if err := w.writeHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(w.cpioWriter, source); err != nil {
		return fmt.Errorf("write body for %s: %w", path, err)
	}

	return nil
}
