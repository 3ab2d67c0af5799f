// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package metrics

import "errors"

var (
	// ErrPushURLMissing is returned if metrics are enabled without a
	// push gateway URL.
	ErrPushURLMissing = errors.New("push gateway URL missing")

	// ErrPushURLInvalid is returned if the push gateway URL cannot be
	// parsed or has no scheme or host.
	ErrPushURLInvalid = errors.New("push gateway URL invalid")

	// ErrJobMissing is returned if the job name is empty.
	ErrJobMissing = errors.New("job name missing")

	// ErrTimeoutInvalid is returned if the push timeout is not
	// positive.
	ErrTimeoutInvalid = errors.New("push timeout must be positive")
)
