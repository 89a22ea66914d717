// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// ObjectRepository manages object and relationship persistence.
//
// Parents must return edges ordered by weight ascending, then parent ID
// ascending: the resolver's depth-first walk depends on this being
// deterministic.
type ObjectRepository interface {
	// Get retrieves an object by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id ulid.ULID) (*Object, error)

	// GetByName retrieves a live object claiming name with unique_name set.
	GetByName(ctx context.Context, name string) (*Object, error)

	// Create persists a new object. Returns ErrDuplicateName when a
	// unique_name collision occurs.
	Create(ctx context.Context, obj *Object) error

	// Update modifies an existing object.
	Update(ctx context.Context, obj *Object) error

	// Delete removes an object by ID. The store blocks deletion while the
	// object is still referenced as a parent.
	Delete(ctx context.Context, id ulid.ULID) error

	// Parents returns the direct parents of child, ordered by edge weight
	// ascending then parent ID ascending.
	Parents(ctx context.Context, childID ulid.ULID) ([]*Object, error)

	// Children returns the direct children of parent, ordered by edge
	// weight ascending then child ID ascending.
	Children(ctx context.Context, parentID ulid.ULID) ([]*Object, error)

	// AddParent inserts a (child, parent, weight) edge. Edges are unique
	// per (child, parent).
	AddParent(ctx context.Context, rel Relationship) error

	// RemoveParent deletes the (child, parent) edge. Returns ErrNotFound
	// when no such edge exists.
	RemoveParent(ctx context.Context, childID, parentID ulid.ULID) error

	// FindContents returns objects located inside container whose name or
	// alias matches name case-insensitively.
	FindContents(ctx context.Context, containerID ulid.ULID, name string) ([]*Object, error)
}

// PropertyRepository manages property persistence.
type PropertyRepository interface {
	// GetByOrigin retrieves the property named name defined on origin.
	// Returns ErrNotFound if origin has no local definition.
	GetByOrigin(ctx context.Context, originID ulid.ULID, name string) (*Property, error)

	// ListByOrigin returns all properties defined on origin, ordered by name.
	ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*Property, error)

	// ListInherited returns origin's properties with the inherited flag set.
	ListInherited(ctx context.Context, originID ulid.ULID) ([]*Property, error)

	// Upsert creates or replaces the (origin, name) definition. On update
	// the existing property ID is preserved and written back to p.
	Upsert(ctx context.Context, p *Property) (created bool, err error)

	// Delete removes a property definition. Returns ErrNotFound if absent.
	Delete(ctx context.Context, originID ulid.ULID, name string) error
}

// VerbRepository manages verb persistence.
type VerbRepository interface {
	// Get retrieves a verb by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id ulid.ULID) (*Verb, error)

	// ListByOrigin returns all verbs defined on origin with their name
	// sets loaded, ordered by creation.
	ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*Verb, error)

	// Create persists a new verb and its names.
	Create(ctx context.Context, v *Verb) error

	// Update replaces a verb's code, flags, and names.
	Update(ctx context.Context, v *Verb) error

	// Delete removes a verb by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id ulid.ULID) error
}

// Transactor runs a function inside a storage transaction. Every mutation
// that touches more than one entity goes through this so a failure partway
// leaves no half-propagated state.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
