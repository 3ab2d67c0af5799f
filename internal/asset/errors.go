// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package asset

import "errors"

// ErrNoAssets is returned if a bundle is requested for an architecture that
// has no assets installed.
var ErrNoAssets = errors.New("no assets for architecture")
