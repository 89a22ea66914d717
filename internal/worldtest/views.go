// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package worldtest

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/world"
)

// The repository interfaces share method names (Get, Create, Delete), so a
// single Store cannot satisfy them all directly. These views expose one
// interface each over the shared state.

// Objects returns the store as a world.ObjectRepository.
func (s *Store) Objects() world.ObjectRepository { return s }

// Properties returns the store as a world.PropertyRepository.
func (s *Store) Properties() world.PropertyRepository { return propertyView{s} }

// Verbs returns the store as a world.VerbRepository.
func (s *Store) Verbs() world.VerbRepository { return verbView{s} }

// Rules returns the store as an access.RuleRepository.
func (s *Store) Rules() access.RuleRepository { return ruleView{s} }

type propertyView struct{ s *Store }

func (v propertyView) GetByOrigin(ctx context.Context, originID ulid.ULID, name string) (*world.Property, error) {
	return v.s.GetByOrigin(ctx, originID, name)
}

func (v propertyView) ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*world.Property, error) {
	return v.s.ListByOrigin(ctx, originID)
}

func (v propertyView) ListInherited(ctx context.Context, originID ulid.ULID) ([]*world.Property, error) {
	return v.s.ListInherited(ctx, originID)
}

func (v propertyView) Upsert(ctx context.Context, p *world.Property) (bool, error) {
	return v.s.Upsert(ctx, p)
}

func (v propertyView) Delete(ctx context.Context, originID ulid.ULID, name string) error {
	return v.s.DeleteProperty(ctx, originID, name)
}

type verbView struct{ s *Store }

func (v verbView) Get(ctx context.Context, id ulid.ULID) (*world.Verb, error) {
	return v.s.GetVerb(ctx, id)
}

func (v verbView) ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*world.Verb, error) {
	return v.s.ListVerbsByOrigin(ctx, originID)
}

func (v verbView) Create(ctx context.Context, verb *world.Verb) error {
	return v.s.CreateVerb(ctx, verb)
}

func (v verbView) Update(ctx context.Context, verb *world.Verb) error {
	return v.s.UpdateVerb(ctx, verb)
}

func (v verbView) Delete(ctx context.Context, id ulid.ULID) error {
	return v.s.DeleteVerb(ctx, id)
}

type ruleView struct{ s *Store }

func (v ruleView) Matching(ctx context.Context, subject access.Subject, permission string) ([]access.Rule, error) {
	return v.s.Matching(ctx, subject, permission)
}

func (v ruleView) Create(ctx context.Context, rule *access.Rule) error {
	return v.s.CreateRule(ctx, rule)
}

func (v ruleView) Delete(ctx context.Context, template access.Rule) (int64, error) {
	return v.s.DeleteRules(ctx, template)
}

func (v ruleView) ListBySubject(ctx context.Context, subject access.Subject) ([]access.Rule, error) {
	return v.s.ListBySubject(ctx, subject)
}

// Compile-time interface checks.
var (
	_ world.ObjectRepository   = (*Store)(nil)
	_ world.PropertyRepository = propertyView{}
	_ world.VerbRepository     = verbView{}
	_ access.RuleRepository    = ruleView{}
	_ access.WizardRegistry    = (*Store)(nil)
	_ world.Transactor         = (*Store)(nil)
)
