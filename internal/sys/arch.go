// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Arch is a CPU architecture token as used by kernel build systems and
// toolchain names. The set is open. Only tokens with dedicated handling are
// listed here.
type Arch string

const (
	X86   Arch = "x86"
	ARM   Arch = "arm"
	ARM64 Arch = "arm64"
)

func (a Arch) String() string {
	return string(a)
}

// Normalize maps a machine token as reported by uname to the name kernel
// build systems expect. Tokens without a dedicated mapping pass through
// unchanged.
func Normalize(token string) Arch {
	switch token {
	case "x86_64":
		return X86
	case "aarch64":
		return ARM64
	default:
		return Arch(token)
	}
}

// Host returns the normalized architecture of the running host as reported
// by uname.
func Host() (Arch, error) {
	var name unix.Utsname

	if err := unix.Uname(&name); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}

	return Normalize(unix.ByteSliceToString(name.Machine[:])), nil
}

// CrossCompile returns the toolchain prefix for cross-building for the
// architecture. Only architectures with a pinned toolchain prefix are
// supported. Any other architecture returns [ErrUnknownArch].
func (a Arch) CrossCompile() (string, error) {
	switch a {
	case ARM64:
		return "aarch64-linux-gnu-", nil
	case ARM:
		return "arm-linux-gnueabi-", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownArch, a)
	}
}
