// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package access implements the capability engine: given an actor, a
// permission name, and a subject (object, verb, or property), it decides
// allow or deny by combining explicit per-actor rules with group rules.
package access

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Permission names. "anything" is a wildcard that matches any check.
const (
	PermRead      = "read"
	PermWrite     = "write"
	PermExecute   = "execute"
	PermDerive    = "derive"
	PermTransmute = "transmute"
	PermMove      = "move"
	PermEntrust   = "entrust"
	PermDevelop   = "develop"
	PermGrant     = "grant"
	PermAnything  = "anything"
)

// Permissions lists every valid permission token, in registry order.
var Permissions = []string{
	PermRead, PermWrite, PermExecute, PermDerive, PermTransmute,
	PermMove, PermEntrust, PermDevelop, PermGrant, PermAnything,
}

// ValidPermission reports whether name is a registered permission token.
func ValidPermission(name string) bool {
	for _, p := range Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// SubjectKind discriminates what an access rule protects.
type SubjectKind string

const (
	KindObject   SubjectKind = "object"
	KindVerb     SubjectKind = "verb"
	KindProperty SubjectKind = "property"
)

// Subject identifies the entity a permission check is made against.
// Exactly one (Kind, ID) pair; the owner rides along because the engine's
// owners-group and implicit-grant logic need it.
type Subject struct {
	Kind  SubjectKind
	ID    ulid.ULID
	Owner *ulid.ULID
}

// Actor is the object on whose authority a check is performed.
type Actor struct {
	ID    ulid.ULID
	Owner *ulid.ULID
}

// Owns reports whether the actor owns the subject.
func (a Actor) Owns(s Subject) bool {
	return s.Owner != nil && *s.Owner == a.ID
}

// RuleEffect is what a matching rule does.
type RuleEffect string

const (
	Allow RuleEffect = "allow"
	Deny  RuleEffect = "deny"
)

// ActorType discriminates how a rule selects actors.
type ActorType string

const (
	// ByAccessor matches one specific object.
	ByAccessor ActorType = "accessor"
	// ByGroup matches a named group of actors.
	ByGroup ActorType = "group"
)

// Group names for group rules.
type Group string

const (
	GroupEveryone Group = "everyone"
	GroupOwners   Group = "owners"
	GroupWizards  Group = "wizards"
)

// Rule is one access-control entry on a subject.
// AccessorID is set iff Type is ByAccessor; Group is set iff Type is ByGroup.
type Rule struct {
	ID         int64
	Subject    Subject
	Effect     RuleEffect
	Permission string
	Type       ActorType
	AccessorID *ulid.ULID
	Group      Group
	Weight     int
}

// ActorRef selects who a new rule applies to: a specific object or a group.
type ActorRef struct {
	AccessorID *ulid.ULID
	Group      Group
}

// ForObject builds an ActorRef naming one specific object.
func ForObject(id ulid.ULID) ActorRef {
	return ActorRef{AccessorID: &id}
}

// ForGroup builds an ActorRef naming a group.
func ForGroup(g Group) ActorRef {
	return ActorRef{Group: g}
}

// Valid reports whether exactly one selector is set and, for groups, the
// group name is known.
func (ref ActorRef) Valid() bool {
	if ref.AccessorID != nil {
		return ref.Group == ""
	}
	switch ref.Group {
	case GroupEveryone, GroupOwners, GroupWizards:
		return true
	}
	return false
}

// Type returns the ActorType the reference selects by.
func (ref ActorRef) Type() ActorType {
	if ref.AccessorID != nil {
		return ByAccessor
	}
	return ByGroup
}

// RuleRepository fetches and stores access rules.
type RuleRepository interface {
	// Matching returns all rules on subject whose permission equals
	// permission or the "anything" wildcard. Order is unspecified; the
	// engine sorts.
	Matching(ctx context.Context, subject Subject, permission string) ([]Rule, error)

	// Create persists a rule.
	Create(ctx context.Context, rule *Rule) error

	// Delete removes all rules on subject matching the effect, permission,
	// and actor selector of the template, returning the number removed.
	Delete(ctx context.Context, rule Rule) (int64, error)

	// ListBySubject returns every rule on subject, for introspection.
	ListBySubject(ctx context.Context, subject Subject) ([]Rule, error)
}

// WizardRegistry answers whether an avatar belongs to a wizard player.
type WizardRegistry interface {
	IsWizard(ctx context.Context, avatarID ulid.ULID) (bool, error)
}
