// Package snapshot persists model-definition snapshots so the differ can
// compare the current models against the previously applied state.
//
// Snapshots are YAML on disk (JSON is valid YAML, so either serialization
// loads). The file is the collaboration point with whatever parses the DSL:
// strata never parses model source itself, it reads these snapshots.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/strataform/strata/pkg/model"
)

// ErrInvalidSnapshot wraps any snapshot that fails to decode.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// File is the on-disk snapshot document.
type File struct {
	// Version allows future format migrations; the current format is 1.
	Version int `json:"version,omitempty"`

	Models []model.Definition `json:"models"`
}

// Load reads and decodes a snapshot file.
func Load(path string) ([]model.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}
	return f.Models, nil
}

// LoadOptional reads a snapshot that may not exist yet. A missing file means
// an empty previous state (a first migration), not an error.
func LoadOptional(path string) ([]model.Definition, error) {
	models, err := Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return models, err
}

// Save writes a snapshot file, replacing any existing one.
func Save(path string, models []model.Definition) error {
	raw, err := yaml.Marshal(File{Version: 1, Models: models})
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}
