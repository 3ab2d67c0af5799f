// SPDX-FileCopyrightText: 2025 The forge authors
//
// SPDX-License-Identifier: MIT

// Package manifest reads and validates helper tool package manifests.
//
// A manifest is a TOML document with static metadata: package name and
// version, the console entry point, and a pinned dependency set. forge
// only validates manifests. Installing and running the packages is the
// consumer's business.
//
// Validation is layered: a JSON schema checks the document shape, then
// a few semantic rules check the values. Unknown keys are rejected so a
// typo cannot silently drop a field.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/forgelab/forge/internal/sys"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

// Manifest is the static metadata of a helper tool package.
type Manifest struct {
	// Name of the package, kebab-case.
	Name string `toml:"name"`
	// Version as dot-separated numbers.
	Version string `toml:"version"`
	// Summary is a one line description.
	Summary string `toml:"summary"`
	// Entrypoint is the console command the package installs.
	Entrypoint Entrypoint `toml:"entrypoint"`
	// Dependencies maps package names to pinned version constraints.
	Dependencies map[string]string `toml:"dependencies"`
	// Environment lists variables the installed tool expects.
	Environment map[string]string `toml:"environment"`
}

// Entrypoint declares the console command of a package.
type Entrypoint struct {
	// Command is the name the console command is installed as.
	Command string `toml:"command"`
	// Target is the file the command dispatches to, relative to the
	// manifest.
	Target string `toml:"target"`
}

var (
	namePattern    = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
	versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)
)

var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("manifest.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}

	schema, err := compiler.Compile("manifest.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return schema, nil
})

// Read parses and validates a manifest document.
func Read(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var m Manifest

	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf(
			"%w: unknown keys: %s", ErrInvalid, joinKeys(keys),
		)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Load reads and validates the manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Target resolves the entry point target relative to dir and verifies
// it exists. Returns [ErrNoTarget] for manifests that do not declare
// one.
func (m *Manifest) Target(dir string) (string, error) {
	if m.Entrypoint.Target == "" {
		return "", ErrNoTarget
	}

	return sys.CanonicalFile(filepath.Join(dir, m.Entrypoint.Target))
}

func (m *Manifest) String() string {
	return m.Name + " " + m.Version
}

// validateSchema checks the document shape against the embedded JSON
// schema. The decoded TOML is piped through a JSON round trip first, so
// the validator sees the value types it is defined for.
func validateSchema(data []byte) error {
	var raw map[string]any

	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return err
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

func (m *Manifest) validate() error {
	switch {
	case !namePattern.MatchString(m.Name):
		return fmt.Errorf(
			"%w: name %q is not kebab-case", ErrInvalid, m.Name,
		)
	case !versionPattern.MatchString(m.Version):
		return fmt.Errorf(
			"%w: version %q is not dot-separated numbers",
			ErrInvalid, m.Version,
		)
	default:
		return nil
	}
}

func joinKeys(keys []toml.Key) string {
	names := make([]string, len(keys))
	for idx, key := range keys {
		names[idx] = key.String()
	}

	return strings.Join(names, ", ")
}
