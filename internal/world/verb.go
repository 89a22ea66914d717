// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"

	"github.com/bubblehouse/gomoo/internal/access"
)

// Verb is a named, owned script attached to an object.
//
// Ability verbs are intrinsic commands: invocable only when the actor in
// context is the verb's own origin object. Method verbs may be invoked
// programmatically by other verbs; non-method verbs are reachable only
// through the command-dispatch path.
type Verb struct {
	ID        ulid.ULID
	OriginID  ulid.ULID
	Names     []string
	Code      string
	OwnerID   *ulid.ULID
	Ability   bool
	Method    bool
	CreatedAt time.Time
}

// Subject adapts the verb for capability checks.
func (v *Verb) Subject() access.Subject {
	return access.Subject{Kind: access.KindVerb, ID: v.ID, Owner: v.OwnerID}
}

// Name returns the verb's primary name, or "(untitled)" when it has none.
func (v *Verb) Name() string {
	if len(v.Names) == 0 {
		return "(untitled)"
	}
	return v.Names[0]
}

// Annotated renders the verb name with its flag decorations: "@" prefix for
// abilities, "()" suffix for methods.
func (v *Verb) Annotated() string {
	var b strings.Builder
	if v.Ability {
		b.WriteByte('@')
	}
	b.WriteString(v.Name())
	if v.Method {
		b.WriteString("()")
	}
	return b.String()
}

// Matches reports whether name invokes this verb. Matching is case-folded.
// An alias without '*' must match exactly. A single star inside an alias
// marks the shortest accepted abbreviation: "l*ook" accepts "l", "lo",
// "loo" and "look". A trailing star, or more than one star, makes the
// alias a glob pattern, so "tele*" accepts every extension of "tele".
func (v *Verb) Matches(name string) bool {
	folded := strings.ToLower(name)
	for _, alias := range v.Names {
		if aliasMatches(strings.ToLower(alias), folded) {
			return true
		}
	}
	return false
}

// MatchesExactly reports whether name equals one of the verb's aliases
// with the abbreviation marker removed. "look" matches the alias "l*ook"
// exactly; "lo" does not.
func (v *Verb) MatchesExactly(name string) bool {
	folded := strings.ToLower(name)
	for _, alias := range v.Names {
		a := strings.ToLower(alias)
		if star := strings.IndexByte(a, '*'); star >= 0 && !strings.ContainsRune(a[star+1:], '*') {
			a = a[:star] + a[star+1:]
		}
		if a == folded {
			return true
		}
	}
	return false
}

func aliasMatches(alias, name string) bool {
	star := strings.IndexByte(alias, '*')
	switch {
	case star < 0:
		return alias == name
	case star == len(alias)-1 || strings.ContainsRune(alias[star+1:], '*'):
		g, err := glob.Compile(alias)
		return err == nil && g.Match(name)
	default:
		full := alias[:star] + alias[star+1:]
		return strings.HasPrefix(name, alias[:star]) && strings.HasPrefix(full, name)
	}
}
