// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package access

import (
	"context"

	"github.com/samber/oops"
)

// DefaultRules returns the bootstrap ACL applied to every newly created
// entity: wizards and owners may do anything, everyone may read, and verbs
// are additionally executable by everyone.
//
// The mutators apply these inside the same transaction that creates the
// entity, so no actor can ever observe an entity with an empty rule set
// (which would be universally denied).
func DefaultRules(subject Subject) []Rule {
	rules := []Rule{
		{Subject: subject, Effect: Allow, Permission: PermAnything, Type: ByGroup, Group: GroupWizards},
		{Subject: subject, Effect: Allow, Permission: PermAnything, Type: ByGroup, Group: GroupOwners},
		{Subject: subject, Effect: Allow, Permission: PermRead, Type: ByGroup, Group: GroupEveryone},
	}
	if subject.Kind == KindVerb {
		rules = append(rules, Rule{
			Subject: subject, Effect: Allow, Permission: PermExecute, Type: ByGroup, Group: GroupEveryone,
		})
	}
	for i := range rules {
		rules[i].Weight = i
	}
	return rules
}

// ApplyDefaults persists the bootstrap ACL for subject.
// Call within the transaction that creates the subject.
func ApplyDefaults(ctx context.Context, repo RuleRepository, subject Subject) error {
	for _, rule := range DefaultRules(subject) {
		if err := repo.Create(ctx, &rule); err != nil {
			return oops.In("access").
				Code("DEFAULT_ACL_FAILED").
				With("subject_kind", string(subject.Kind)).
				With("subject_id", subject.ID.String()).
				With("permission", rule.Permission).
				Wrap(err)
		}
	}
	return nil
}
