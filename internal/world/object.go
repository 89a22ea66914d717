// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package world defines the prototype-inheriting object model: objects,
// parent relationships, properties, and verbs, plus the resolver that walks
// the ancestor graph and the mutators that change it.
package world

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bubblehouse/gomoo/internal/access"
)

// Object is an entity in the world. Ownership is a nullable self-reference
// (nil means ownerless/system). Location is containment, orthogonal to
// inheritance. Parents are reached through Relationship edges.
type Object struct {
	ID         ulid.ULID
	Name       string
	UniqueName bool
	Obvious    bool
	OwnerID    *ulid.ULID
	LocationID *ulid.ULID
	Aliases    []string
	CreatedAt  time.Time
}

// Subject adapts the object for capability checks.
func (o *Object) Subject() access.Subject {
	return access.Subject{Kind: access.KindObject, ID: o.ID, Owner: o.OwnerID}
}

// Actor adapts the object for use as the acting party in capability checks.
func (o *Object) Actor() access.Actor {
	return access.Actor{ID: o.ID, Owner: o.OwnerID}
}

// Relationship is a (child, parent, weight) edge in the inheritance graph.
// Weight breaks ties in multi-parent resolution order; edges are unique per
// (child, parent). The graph must stay acyclic: AddParent rejects edges
// that would put an object in its own ancestor set.
type Relationship struct {
	ChildID  ulid.ULID
	ParentID ulid.ULID
	Weight   int
}
