// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package selftest

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgelab/forge/internal/git"
)

// CheckDocs verifies that the generated documentation tree matches the
// committed state. A suite is expected to rebuild the documentation in
// one of its steps first, so any difference means the committed files
// are stale.
func (s *Suite) CheckDocs(ctx context.Context) error {
	files, err := git.DiffNames(ctx, s.Repo, s.Docs.Dir)
	if err != nil {
		return fmt.Errorf("diff docs: %w", err)
	}

	if len(files) > 0 {
		return &StaleDocsError{Files: files}
	}

	return nil
}

// CheckVendored verifies that no commit in the inspected history touches
// the vendored tree, except the allowlisted ones.
func (s *Suite) CheckVendored(ctx context.Context) error {
	revRange := "HEAD"
	if s.Vendored.Base != "" {
		revRange = s.Vendored.Base + "..HEAD"
	}

	commits, err := git.RevList(ctx, s.Repo, revRange, s.Vendored.Dir)
	if err != nil {
		return fmt.Errorf("list vendored commits: %w", err)
	}

	var offenders []string

	for _, commit := range commits {
		if !s.Vendored.allows(commit) {
			offenders = append(offenders, commit)
		}
	}

	if len(offenders) > 0 {
		return &VendoredError{
			Dir:     s.Vendored.Dir,
			Commits: offenders,
		}
	}

	return nil
}

func (c VendoredCheck) allows(commit string) bool {
	for _, allow := range c.Allow {
		if allow != "" && strings.HasPrefix(commit, allow) {
			return true
		}
	}

	return false
}
