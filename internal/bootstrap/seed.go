// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package bootstrap loads a world from a declarative YAML seed. Seeds run
// with no acting session, so permission checks are skipped; the seed is
// the one place world state comes into existence without an authority.
package bootstrap

import (
	"embed"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed seeds/*.yaml
var seedsFS embed.FS

// Seed is a declarative world description.
type Seed struct {
	Name    string       `yaml:"name" json:"name"`
	Objects []ObjectSeed `yaml:"objects" json:"objects"`
}

// ObjectSeed describes one object. Ref is a seed-local handle other
// entries use to point at this object; it never appears in the database.
type ObjectSeed struct {
	Ref        string         `yaml:"ref" json:"ref"`
	Name       string         `yaml:"name" json:"name"`
	UniqueName bool           `yaml:"unique_name" json:"unique_name"`
	Obvious    *bool          `yaml:"obvious,omitempty" json:"obvious,omitempty"`
	Owner      string         `yaml:"owner,omitempty" json:"owner,omitempty"`
	Location   string         `yaml:"location,omitempty" json:"location,omitempty"`
	Parents    []string       `yaml:"parents,omitempty" json:"parents,omitempty"`
	Aliases    []string       `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Properties []PropertySeed `yaml:"properties,omitempty" json:"properties,omitempty"`
	Verbs      []VerbSeed     `yaml:"verbs,omitempty" json:"verbs,omitempty"`
	Player     *PlayerSeed    `yaml:"player,omitempty" json:"player,omitempty"`
}

// PropertySeed describes a property definition.
type PropertySeed struct {
	Name      string `yaml:"name" json:"name"`
	Value     string `yaml:"value" json:"value"`
	Type      string `yaml:"type,omitempty" json:"type,omitempty"`
	Inherited bool   `yaml:"inherited,omitempty" json:"inherited,omitempty"`
}

// VerbSeed describes a verb definition.
type VerbSeed struct {
	Names   []string `yaml:"names" json:"names"`
	Code    string   `yaml:"code" json:"code"`
	Ability bool     `yaml:"ability,omitempty" json:"ability,omitempty"`
	Method  bool     `yaml:"method,omitempty" json:"method,omitempty"`
}

// PlayerSeed binds an account to the object it appears on. The password
// is supplied at apply time, never stored in seed files.
type PlayerSeed struct {
	Username string `yaml:"username" json:"username"`
	Wizard   bool   `yaml:"wizard,omitempty" json:"wizard,omitempty"`
}

// Parse validates data against the seed schema and unmarshals it.
func Parse(data []byte) (*Seed, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, oops.In("bootstrap").Code("SEED_PARSE_FAILED").Wrap(err)
	}
	if err := checkRefs(&seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

// DefaultSeed returns the embedded default world.
func DefaultSeed() (*Seed, error) {
	data, err := seedsFS.ReadFile("seeds/default.yaml")
	if err != nil {
		return nil, oops.In("bootstrap").Code("SEED_READ_FAILED").Wrap(err)
	}
	return Parse(data)
}

// EmbeddedSeeds returns the raw contents of every embedded seed file,
// keyed by filename. Used by seed validation tooling.
func EmbeddedSeeds() (map[string][]byte, error) {
	entries, err := seedsFS.ReadDir("seeds")
	if err != nil {
		return nil, oops.In("bootstrap").Code("SEED_READ_FAILED").Wrap(err)
	}
	out := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		data, err := seedsFS.ReadFile("seeds/" + entry.Name())
		if err != nil {
			return nil, oops.In("bootstrap").Code("SEED_READ_FAILED").With("file", entry.Name()).Wrap(err)
		}
		out[entry.Name()] = data
	}
	return out, nil
}

// checkRefs verifies ref uniqueness and that every owner, location, and
// parent reference resolves to an object declared in the seed.
func checkRefs(seed *Seed) error {
	refs := make(map[string]struct{}, len(seed.Objects))
	for _, obj := range seed.Objects {
		if obj.Ref == "" {
			return oops.In("bootstrap").Code("SEED_INVALID").
				With("object", obj.Name).
				Errorf("object %q has no ref", obj.Name)
		}
		if _, dup := refs[obj.Ref]; dup {
			return oops.In("bootstrap").Code("SEED_INVALID").
				With("ref", obj.Ref).
				Errorf("duplicate ref %q", obj.Ref)
		}
		refs[obj.Ref] = struct{}{}
	}
	for _, obj := range seed.Objects {
		for _, target := range append([]string{obj.Owner, obj.Location}, obj.Parents...) {
			if target == "" {
				continue
			}
			if _, ok := refs[target]; !ok {
				return oops.In("bootstrap").Code("SEED_INVALID").
					With("ref", obj.Ref).
					With("target", target).
					Errorf("object %q references unknown ref %q", obj.Ref, target)
			}
		}
	}
	return nil
}
