// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bubblehouse/gomoo/internal/access"
)

// PropertyType is the declared type of a property value.
type PropertyType string

const (
	PropertyString  PropertyType = "string"
	PropertyCode    PropertyType = "code"
	PropertyDynamic PropertyType = "dynamic"
)

// Property is a named, owned, typed value slot on an object. A property is
// identified by (origin, name); each ancestor may define its own shadowing
// copy.
//
// Inherited means the property is copied onto new children of its origin
// (owner becomes the child's owner, value and type copied, flag carried).
// When an existing property transitions inherited false→true, the copy is
// pushed to every current descendant as well.
type Property struct {
	ID        ulid.ULID
	OriginID  ulid.ULID
	Name      string
	Value     *string
	Type      PropertyType
	OwnerID   *ulid.ULID
	Inherited bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subject adapts the property for capability checks.
func (p *Property) Subject() access.Subject {
	return access.Subject{Kind: access.KindProperty, ID: p.ID, Owner: p.OwnerID}
}
