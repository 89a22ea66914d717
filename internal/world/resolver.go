// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Resolver locates the property or verb definition that applies to an
// object, walking the ancestor graph when the object has no local
// definition.
//
// Local definitions always win. The walk is depth-first over parents
// ordered by edge weight ascending then parent ID ascending, and returns
// the first match along that order — single-definition MOO semantics, not a
// merged view and not C3 linearization.
type Resolver struct {
	objects    ObjectRepository
	properties PropertyRepository
	verbs      VerbRepository
}

// NewResolver creates a Resolver over the given repositories.
func NewResolver(objects ObjectRepository, properties PropertyRepository, verbs VerbRepository) *Resolver {
	return &Resolver{objects: objects, properties: properties, verbs: verbs}
}

// Property finds the property definition named name that applies to obj.
// Returns ErrNotFound (wrapped) when neither obj nor, with recurse, any
// ancestor defines it.
func (r *Resolver) Property(ctx context.Context, obj *Object, name string, recurse bool) (*Property, error) {
	prop, err := r.properties.GetByOrigin(ctx, obj.ID, name)
	if err == nil {
		recordLookup("property", lookupLocal)
		return prop, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	if recurse {
		found, aerr := walkAncestors(ctx, r, obj, func(ctx context.Context, ancestor *Object) (*Property, error) {
			p, gerr := r.properties.GetByOrigin(ctx, ancestor.ID, name)
			if isNotFound(gerr) {
				return nil, nil
			}
			return p, gerr
		})
		if aerr != nil {
			return nil, aerr
		}
		if found != nil {
			recordLookup("property", lookupInherited)
			return found, nil
		}
	}
	recordLookup("property", lookupMiss)
	return nil, oops.In("world").
		Code("PROPERTY_NOT_FOUND").
		With("object_id", obj.ID.String()).
		With("name", name).
		Wrapf(ErrNotFound, "no such property %q", name)
}

// Verb finds the verb definition invocable as name on obj. A full alias
// wins over another verb's abbreviation at the same origin. More than one
// candidate at the winning origin is an AmbiguousError carrying the
// candidate list.
func (r *Resolver) Verb(ctx context.Context, obj *Object, name string, recurse bool) (*Verb, error) {
	verb, err := r.localVerb(ctx, obj, name)
	if err != nil || verb != nil {
		if verb != nil {
			recordLookup("verb", lookupLocal)
		}
		return verb, err
	}
	if recurse {
		found, aerr := walkAncestors(ctx, r, obj, func(ctx context.Context, ancestor *Object) (*Verb, error) {
			return r.localVerb(ctx, ancestor, name)
		})
		if aerr != nil {
			return nil, aerr
		}
		if found != nil {
			recordLookup("verb", lookupInherited)
			return found, nil
		}
	}
	recordLookup("verb", lookupMiss)
	return nil, oops.In("world").
		Code("VERB_NOT_FOUND").
		With("object_id", obj.ID.String()).
		With("name", name).
		Wrapf(ErrNotFound, "no such verb %q", name)
}

// HasVerb reports whether name resolves to a verb on obj.
func (r *Resolver) HasVerb(ctx context.Context, obj *Object, name string, recurse bool) (bool, error) {
	_, err := r.Verb(ctx, obj, name, recurse)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// localVerb matches name against the verbs defined directly on obj.
// Returns (nil, nil) when nothing matches.
func (r *Resolver) localVerb(ctx context.Context, obj *Object, name string) (*Verb, error) {
	verbs, err := r.verbs.ListByOrigin(ctx, obj.ID)
	if err != nil {
		return nil, err
	}
	var matches []*Verb
	for _, v := range verbs {
		if v.Matches(name) {
			matches = append(matches, v)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		// A full alias outranks other verbs' abbreviations of it.
		var exact []*Verb
		for _, v := range matches {
			if v.MatchesExactly(name) {
				exact = append(exact, v)
			}
		}
		if len(exact) == 1 {
			return exact[0], nil
		}
		candidates := make([]string, len(matches))
		for i, v := range matches {
			candidates[i] = v.Annotated()
		}
		return nil, &AmbiguousError{Name: name, Candidates: candidates}
	}
}

// Ancestors returns every object reachable by following parent edges,
// depth-first in resolution order. Diamonds are legal: a node reachable
// along two paths appears once, at its first visit. The seen set also
// makes the walk terminate if the acyclicity invariant has been broken
// behind the mutators' backs.
func (r *Resolver) Ancestors(ctx context.Context, obj *Object) ([]*Object, error) {
	var out []*Object
	seen := map[ulid.ULID]bool{obj.ID: true}
	var walk func(o *Object) error
	walk = func(o *Object) error {
		parents, err := r.objects.Parents(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
			if err := walk(p); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(obj); err != nil {
		return nil, err
	}
	return out, nil
}

// Descendants returns every object reachable by following child edges,
// depth-first. Same revisit handling as Ancestors.
func (r *Resolver) Descendants(ctx context.Context, obj *Object) ([]*Object, error) {
	var out []*Object
	seen := map[ulid.ULID]bool{obj.ID: true}
	var walk func(o *Object) error
	walk = func(o *Object) error {
		children, err := r.objects.Children(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(obj); err != nil {
		return nil, err
	}
	return out, nil
}

// walkAncestors runs fn on each ancestor in DFS order and returns the first
// non-nil result.
func walkAncestors[T any](ctx context.Context, r *Resolver, obj *Object, fn func(context.Context, *Object) (*T, error)) (*T, error) {
	var found *T
	seen := map[ulid.ULID]bool{obj.ID: true}
	var walk func(o *Object) error
	walk = func(o *Object) error {
		parents, err := r.objects.Parents(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			res, err := fn(ctx, p)
			if err != nil {
				return err
			}
			if res != nil {
				found = res
				return nil
			}
			if err := walk(p); err != nil {
				return err
			}
			if found != nil {
				return nil
			}
		}
		return nil
	}
	if err := walk(obj); err != nil {
		return nil, err
	}
	return found, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
