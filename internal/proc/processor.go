// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package proc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	// maxLineBytes bounds a single scanned output line. Build tools echo
	// whole command lines which easily exceed the scanner default.
	maxLineBytes = 1 << 20

	tailMaxLines = 32
	tailMaxBytes = 4096
)

type outputProcessor func() error

// streamLines returns an [outputProcessor] that copies src to dst line by
// line until src is closed. Trailing carriage returns are removed by
// [bufio.ScanLines]. Lines are mirrored into tl if set.
func streamLines(dst io.Writer, src io.Reader, tl *tail) outputProcessor {
	return func() error {
		var writeErr error

		scanner := bufio.NewScanner(src)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for scanner.Scan() {
			if tl != nil {
				tl.add(scanner.Text())
			}

			if writeErr != nil {
				// Keep draining so the child never blocks on a full pipe.
				continue
			}

			writeErr = writeLn(dst, scanner.Bytes())
		}

		if scanner.Err() != nil {
			return scanner.Err()
		}

		return writeErr
	}
}

func writeLn(dst io.Writer, data []byte) error {
	if dst == nil {
		return nil
	}

	_, err := dst.Write(data)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	_, err = dst.Write([]byte("\n"))
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// tail keeps the most recent lines written to it within fixed line and byte
// budgets. It backs the stderr excerpt in [CommandError].
type tail struct {
	lines    []string
	maxLines int
	maxBytes int
	size     int
}

func newTail(maxLines, maxBytes int) *tail {
	return &tail{
		maxLines: maxLines,
		maxBytes: maxBytes,
	}
}

func (t *tail) add(line string) {
	t.lines = append(t.lines, line)
	t.size += len(line)

	for (len(t.lines) > t.maxLines || t.size > t.maxBytes) && len(t.lines) > 1 {
		t.size -= len(t.lines[0])
		t.lines = t.lines[1:]
	}
}

func (t *tail) String() string {
	return strings.Join(t.lines, "\n")
}
