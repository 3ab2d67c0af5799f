// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

package recipe

import "errors"

var (
	// ErrRecipeNotFound is returned if neither the recipe directory nor the
	// compiled-in set has a recipe of the requested name.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRecipeNameMismatch is returned if a recipe file declares a name
	// other than the one it was looked up under.
	ErrRecipeNameMismatch = errors.New("recipe name mismatch")

	// ErrRecipeInvalid is returned if a recipe document misses required
	// fields or carries values that cannot work.
	ErrRecipeInvalid = errors.New("invalid recipe")

	// ErrSourceExists is returned if the download phase finds the checkout
	// directory already present. Downloads never reuse or clean up an
	// existing tree.
	ErrSourceExists = errors.New("source directory already exists")

	// ErrSourceMissing is returned if the build or install phase runs
	// without a downloaded source tree.
	ErrSourceMissing = errors.New("source directory missing, download first")

	// ErrMissingTool is returned if a host tool required by the recipe is
	// not in PATH.
	ErrMissingTool = errors.New("required tool not found")

	// ErrNoArtifacts is returned if the install phase runs for a recipe that
	// declares no binaries.
	ErrNoArtifacts = errors.New("recipe declares no binaries to install")

	// ErrUnknownPhase is returned if a phase argument is not one of
	// download, build, install.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrUnknownVar is returned if a recipe references a variable the
	// pipeline does not provide.
	ErrUnknownVar = errors.New("unknown recipe variable")
)
