// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/session"
)

// Mutator is the full set of authorized write operations on the object
// model. Collaborators that need to modify world state (the script host,
// the bootstrap loader) depend on this interface rather than the concrete
// Service.
type Mutator interface {
	// Read side

	GetObject(ctx context.Context, sess *session.Context, id ulid.ULID) (*Object, error)
	GetProperty(ctx context.Context, sess *session.Context, obj *Object, name string, recurse bool) (*Property, error)
	FindContents(ctx context.Context, sess *session.Context, container *Object, name string) ([]*Object, error)

	// Write side

	CreateObject(ctx context.Context, sess *session.Context, params CreateObjectParams) (*Object, error)
	MoveObject(ctx context.Context, sess *session.Context, obj *Object, destinationID *ulid.ULID) error
	AddParent(ctx context.Context, sess *session.Context, child *Object, parentID ulid.ULID, weight int) error
	RemoveParent(ctx context.Context, sess *session.Context, child *Object, parentID ulid.ULID) error
	SetProperty(ctx context.Context, sess *session.Context, obj *Object, params SetPropertyParams) (*Property, error)
	AddVerb(ctx context.Context, sess *session.Context, obj *Object, params AddVerbParams) (*Verb, error)
	Allow(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string) error
	Deny(ctx context.Context, sess *session.Context, subject access.Subject, who access.ActorRef, permission string) error
	InvokeVerb(ctx context.Context, sess *session.Context, obj *Object, name string, args []string, opts InvokeOptions) error
}

// Compile-time check that Service implements Mutator.
var _ Mutator = (*Service)(nil)
