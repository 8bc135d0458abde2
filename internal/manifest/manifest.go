// Package manifest loads YAML dispatch manifests: predicate declarations,
// subject kinds and candidates, and builds a ready-to-query domain from them.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/walkabout/internal/log"
)

// DefaultTarget is used when a manifest names no target.
const DefaultTarget = "default"

// ErrInvalidManifest is returned for structurally invalid manifests.
var ErrInvalidManifest = errors.New("invalid manifest")

// File is the root structure of a manifest.
type File struct {
	Target     string              `yaml:"target"`     // Capability the domain dispatches for
	Kinds      map[string][]string `yaml:"kinds"`      // Subject kind -> kinds it extends
	Predicates []PredicateDef      `yaml:"predicates"` // Registered in order
	Candidates []CandidateDef      `yaml:"candidates"`
}

// PredicateDef declares one predicate.
type PredicateDef struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`   // equals, prefix, glob, present, any
	Field  string   `yaml:"field"`  // Subject field inspected
	Arg    int      `yaml:"arg"`    // Index of the dispatch argument
	Before []string `yaml:"before"` // Predicate names or FIRST/LAST
	After  []string `yaml:"after"`
}

// CandidateDef declares one candidate.
type CandidateDef struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`       // Registration name, "" by default
	For        []string       `yaml:"for"`        // Subject kinds, or "*" for any value
	Predicates map[string]any `yaml:"predicates"` // Scalar, list (many) or {not: v}
}

// Load reads and parses the manifest at path in fsys.
func Load(fsys fs.FS, path string) (*File, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Debug(log.CatManifest, "manifest loaded", "path", path,
		"predicates", len(f.Predicates), "candidates", len(f.Candidates))
	return f, nil
}

// Parse decodes and validates manifest content.
func Parse(content []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, err
	}
	if f.Target == "" {
		f.Target = DefaultTarget
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the manifest structure. Predicate semantics (unknown
// kinds, ordering, bad values) are checked when building.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Predicates))
	for i, p := range f.Predicates {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: predicate %d has no name", ErrInvalidManifest, i)
		}
		if isAnchor(p.Name) {
			return fmt.Errorf("%w: predicate name %q is reserved", ErrInvalidManifest, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: predicate %q declared twice", ErrInvalidManifest, p.Name)
		}
		seen[p.Name] = true
	}

	for i, c := range f.Candidates {
		if c.ID == "" {
			return fmt.Errorf("%w: candidate %d has no id", ErrInvalidManifest, i)
		}
		if len(c.For) == 0 {
			return fmt.Errorf("%w: candidate %q has no 'for' kinds", ErrInvalidManifest, c.ID)
		}
	}

	for kind, parents := range f.Kinds {
		for _, p := range parents {
			if p == kind {
				return fmt.Errorf("%w: kind %q extends itself", ErrInvalidManifest, kind)
			}
		}
	}
	return nil
}

func isAnchor(s string) bool {
	return s == "FIRST" || s == "LAST"
}
