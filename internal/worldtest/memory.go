// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package worldtest provides in-memory repository implementations for unit
// tests. They honor the same contracts as the postgres repositories
// (ordering, sentinel errors, uniqueness) without a live database.
package worldtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/world"
)

// Store is an in-memory entity store implementing the world repositories,
// the access rule repository, the wizard registry, and the transactor.
type Store struct {
	mu         sync.Mutex
	objects    map[ulid.ULID]*world.Object
	edges      []world.Relationship
	properties map[ulid.ULID]map[string]*world.Property
	verbs      map[ulid.ULID][]*world.Verb
	rules      []access.Rule
	wizards    map[ulid.ULID]bool
	nextRuleID int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		objects:    make(map[ulid.ULID]*world.Object),
		properties: make(map[ulid.ULID]map[string]*world.Property),
		verbs:      make(map[ulid.ULID][]*world.Verb),
		wizards:    make(map[ulid.ULID]bool),
	}
}

// MakeWizard flags avatarID as a wizard in the registry.
func (s *Store) MakeWizard(avatarID ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[avatarID] = true
}

// IsWizard implements access.WizardRegistry.
func (s *Store) IsWizard(_ context.Context, avatarID ulid.ULID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizards[avatarID], nil
}

// InTransaction implements world.Transactor. The in-memory store has no
// rollback; tests that need failure atomicity use the postgres transactor.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- world.ObjectRepository ---

// Get implements world.ObjectRepository.
func (s *Store) Get(_ context.Context, id ulid.ULID) (*world.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, oops.Code("OBJECT_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	cp := *obj
	return &cp, nil
}

// GetByName implements world.ObjectRepository.
func (s *Store) GetByName(_ context.Context, name string) (*world.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		if obj.UniqueName && strings.EqualFold(obj.Name, name) {
			cp := *obj
			return &cp, nil
		}
	}
	return nil, oops.Code("OBJECT_NOT_FOUND").With("name", name).Wrap(world.ErrNotFound)
}

// Create implements world.ObjectRepository.
func (s *Store) Create(_ context.Context, obj *world.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.UniqueName {
		for _, existing := range s.objects {
			if existing.UniqueName && strings.EqualFold(existing.Name, obj.Name) {
				return oops.Code("OBJECT_DUPLICATE_NAME").With("name", obj.Name).Wrap(world.ErrDuplicateName)
			}
		}
	}
	cp := *obj
	s.objects[obj.ID] = &cp
	return nil
}

// Update implements world.ObjectRepository.
func (s *Store) Update(_ context.Context, obj *world.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[obj.ID]; !ok {
		return oops.Code("OBJECT_NOT_FOUND").With("id", obj.ID.String()).Wrap(world.ErrNotFound)
	}
	cp := *obj
	s.objects[obj.ID] = &cp
	return nil
}

// Delete implements world.ObjectRepository.
func (s *Store) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.ParentID == id {
			return oops.Code("OBJECT_STILL_PARENT").With("id", id.String()).Wrap(world.ErrInvariantViolation)
		}
	}
	if _, ok := s.objects[id]; !ok {
		return oops.Code("OBJECT_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	delete(s.objects, id)
	return nil
}

// Parents implements world.ObjectRepository, ordered by weight then parent ID.
func (s *Store) Parents(_ context.Context, childID ulid.ULID) ([]*world.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edges []world.Relationship
	for _, e := range s.edges {
		if e.ChildID == childID {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight < edges[j].Weight
		}
		return edges[i].ParentID.Compare(edges[j].ParentID) < 0
	})
	out := make([]*world.Object, 0, len(edges))
	for _, e := range edges {
		if obj, ok := s.objects[e.ParentID]; ok {
			cp := *obj
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Children implements world.ObjectRepository, ordered by weight then child ID.
func (s *Store) Children(_ context.Context, parentID ulid.ULID) ([]*world.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edges []world.Relationship
	for _, e := range s.edges {
		if e.ParentID == parentID {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight < edges[j].Weight
		}
		return edges[i].ChildID.Compare(edges[j].ChildID) < 0
	})
	out := make([]*world.Object, 0, len(edges))
	for _, e := range edges {
		if obj, ok := s.objects[e.ChildID]; ok {
			cp := *obj
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AddParent implements world.ObjectRepository.
func (s *Store) AddParent(_ context.Context, rel world.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.ChildID == rel.ChildID && e.ParentID == rel.ParentID {
			return oops.Code("RELATIONSHIP_EXISTS").Wrap(world.ErrInvariantViolation)
		}
	}
	s.edges = append(s.edges, rel)
	return nil
}

// RemoveParent implements world.ObjectRepository.
func (s *Store) RemoveParent(_ context.Context, childID, parentID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.edges {
		if e.ChildID == childID && e.ParentID == parentID {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return oops.Code("RELATIONSHIP_NOT_FOUND").Wrap(world.ErrNotFound)
}

// FindContents implements world.ObjectRepository.
func (s *Store) FindContents(_ context.Context, containerID ulid.ULID, name string) ([]*world.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Object
	for _, obj := range s.objects {
		if obj.LocationID == nil || *obj.LocationID != containerID {
			continue
		}
		if strings.EqualFold(obj.Name, name) {
			cp := *obj
			out = append(out, &cp)
			continue
		}
		for _, alias := range obj.Aliases {
			if strings.EqualFold(alias, name) {
				cp := *obj
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out, nil
}

// --- world.PropertyRepository ---

// GetByOrigin implements world.PropertyRepository.
func (s *Store) GetByOrigin(_ context.Context, originID ulid.ULID, name string) (*world.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if props, ok := s.properties[originID]; ok {
		if p, ok := props[name]; ok {
			cp := *p
			return &cp, nil
		}
	}
	return nil, oops.Code("PROPERTY_NOT_FOUND").With("origin_id", originID.String()).With("name", name).Wrap(world.ErrNotFound)
}

// ListByOrigin implements world.PropertyRepository.
func (s *Store) ListByOrigin(_ context.Context, originID ulid.ULID) ([]*world.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Property
	for _, p := range s.properties[originID] {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListInherited implements world.PropertyRepository.
func (s *Store) ListInherited(_ context.Context, originID ulid.ULID) ([]*world.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*world.Property
	for _, p := range s.properties[originID] {
		if p.Inherited {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upsert implements world.PropertyRepository.
func (s *Store) Upsert(_ context.Context, p *world.Property) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.properties[p.OriginID]
	if !ok {
		props = make(map[string]*world.Property)
		s.properties[p.OriginID] = props
	}
	created := true
	if existing, ok := props[p.Name]; ok {
		p.ID = existing.ID
		created = false
	}
	cp := *p
	props[p.Name] = &cp
	return created, nil
}

// DeleteProperty removes a property definition.
// Named to avoid colliding with the object Delete; the world.Service wires
// repositories individually, so the Store is split by interface via the
// Properties adapter.
func (s *Store) DeleteProperty(_ context.Context, originID ulid.ULID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if props, ok := s.properties[originID]; ok {
		if _, ok := props[name]; ok {
			delete(props, name)
			return nil
		}
	}
	return oops.Code("PROPERTY_NOT_FOUND").Wrap(world.ErrNotFound)
}

// --- world.VerbRepository ---

// GetVerb retrieves a verb by ID.
func (s *Store) GetVerb(_ context.Context, id ulid.ULID) (*world.Verb, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, verbs := range s.verbs {
		for _, v := range verbs {
			if v.ID == id {
				cp := *v
				return &cp, nil
			}
		}
	}
	return nil, oops.Code("VERB_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
}

// ListVerbsByOrigin returns the verbs defined on origin.
func (s *Store) ListVerbsByOrigin(_ context.Context, originID ulid.ULID) ([]*world.Verb, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	verbs := s.verbs[originID]
	out := make([]*world.Verb, 0, len(verbs))
	for _, v := range verbs {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

// CreateVerb persists a verb.
func (s *Store) CreateVerb(_ context.Context, v *world.Verb) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.verbs[v.OriginID] = append(s.verbs[v.OriginID], &cp)
	return nil
}

// UpdateVerb replaces a verb.
func (s *Store) UpdateVerb(_ context.Context, v *world.Verb) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, verbs := range s.verbs {
		for i, existing := range verbs {
			if existing.ID == v.ID {
				cp := *v
				verbs[i] = &cp
				return nil
			}
		}
	}
	return oops.Code("VERB_NOT_FOUND").With("id", v.ID.String()).Wrap(world.ErrNotFound)
}

// DeleteVerb removes a verb by ID.
func (s *Store) DeleteVerb(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for origin, verbs := range s.verbs {
		for i, v := range verbs {
			if v.ID == id {
				s.verbs[origin] = append(verbs[:i], verbs[i+1:]...)
				return nil
			}
		}
	}
	return oops.Code("VERB_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
}

// --- access.RuleRepository ---

// Matching implements access.RuleRepository.
func (s *Store) Matching(_ context.Context, subject access.Subject, permission string) ([]access.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []access.Rule
	for _, r := range s.rules {
		if r.Subject.Kind != subject.Kind || r.Subject.ID != subject.ID {
			continue
		}
		if r.Permission != permission && r.Permission != access.PermAnything {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CreateRule implements access.RuleRepository's Create.
func (s *Store) CreateRule(_ context.Context, rule *access.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRuleID++
	rule.ID = s.nextRuleID
	s.rules = append(s.rules, *rule)
	return nil
}

// DeleteRules implements access.RuleRepository's Delete.
func (s *Store) DeleteRules(_ context.Context, template access.Rule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []access.Rule
	var removed int64
	for _, r := range s.rules {
		if r.Subject.Kind == template.Subject.Kind &&
			r.Subject.ID == template.Subject.ID &&
			r.Effect == template.Effect &&
			r.Permission == template.Permission &&
			r.Type == template.Type &&
			r.Group == template.Group &&
			equalULIDPtr(r.AccessorID, template.AccessorID) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept
	return removed, nil
}

// ListBySubject implements access.RuleRepository.
func (s *Store) ListBySubject(_ context.Context, subject access.Subject) ([]access.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []access.Rule
	for _, r := range s.rules {
		if r.Subject.Kind == subject.Kind && r.Subject.ID == subject.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func equalULIDPtr(a, b *ulid.ULID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
