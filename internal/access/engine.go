// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package access

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/oops"
)

// ErrPermissionDenied is returned by fatal-mode checks that fail.
var ErrPermissionDenied = errors.New("permission denied")

// Engine evaluates permission checks against stored access rules.
type Engine struct {
	rules   RuleRepository
	wizards WizardRegistry
}

// NewEngine creates an Engine. wizards may be nil, in which case wizard
// group rules never apply.
func NewEngine(rules RuleRepository, wizards WizardRegistry) *Engine {
	return &Engine{rules: rules, wizards: wizards}
}

// IsAllowed decides whether actor holds permission on subject.
//
// Four pools of rules are collected: accessor rules naming the actor,
// everyone-group rules, owners-group rules (only when the actor owns the
// subject), and wizards-group rules (only when the actor's player record is
// flagged wizard). A rule matches when its permission equals the requested
// one or the "anything" wildcard.
//
// An empty combined pool denies by default. Otherwise the whole pool is
// scanned: any explicit deny overrides every allow, wherever it sorts.
// (The ancestry of this engine returned on the first sorted rule, which
// made the outcome order-dependent; that was a defect, not a semantic.)
//
// Owners implicitly hold "grant" on what they own, without any stored
// rule: an object bootstrapping ACL rules on itself depends on this, so
// the short-circuit sits ahead of the rule pools in both modes.
//
// In fatal mode a negative result is returned as ErrPermissionDenied with
// context attached; otherwise as (false, nil).
func (e *Engine) IsAllowed(ctx context.Context, actor Actor, permission string, subject Subject, fatal bool) (bool, error) {
	if !ValidPermission(permission) {
		return false, oops.In("access").
			Code("UNKNOWN_PERMISSION").
			With("permission", permission).
			Errorf("unknown permission %q", permission)
	}

	if permission == PermGrant && actor.Owns(subject) {
		recordCheck(permission, resultOwnerGrant)
		return true, nil
	}

	pool, err := e.collect(ctx, actor, permission, subject)
	if err != nil {
		return false, err
	}

	if len(pool) == 0 {
		recordCheck(permission, resultDefaultDeny)
		return e.denied(actor, permission, subject, fatal, "no matching rules")
	}

	sortRules(pool)
	allowed := false
	for _, rule := range pool {
		if rule.Effect == Deny {
			recordCheck(permission, resultDeny)
			return e.denied(actor, permission, subject, fatal, "explicitly denied")
		}
		allowed = true
	}
	if allowed {
		recordCheck(permission, resultAllow)
	}
	return allowed, nil
}

// Check enforces permission for actor on subject, returning an error on
// denial.
func (e *Engine) Check(ctx context.Context, actor Actor, permission string, subject Subject) error {
	_, err := e.IsAllowed(ctx, actor, permission, subject, true)
	return err
}

// collect gathers the four rule pools for this check.
func (e *Engine) collect(ctx context.Context, actor Actor, permission string, subject Subject) ([]Rule, error) {
	all, err := e.rules.Matching(ctx, subject, permission)
	if err != nil {
		return nil, oops.In("access").
			Code("RULE_FETCH_FAILED").
			With("subject_kind", string(subject.Kind)).
			With("subject_id", subject.ID.String()).
			Wrap(err)
	}

	owns := actor.Owns(subject)
	wizard := false
	if e.wizards != nil {
		wizard, err = e.wizards.IsWizard(ctx, actor.ID)
		if err != nil {
			return nil, oops.In("access").
				Code("WIZARD_LOOKUP_FAILED").
				With("actor_id", actor.ID.String()).
				Wrap(err)
		}
	}

	pool := make([]Rule, 0, len(all))
	for _, rule := range all {
		switch rule.Type {
		case ByAccessor:
			if rule.AccessorID != nil && *rule.AccessorID == actor.ID {
				pool = append(pool, rule)
			}
		case ByGroup:
			switch rule.Group {
			case GroupEveryone:
				pool = append(pool, rule)
			case GroupOwners:
				if owns {
					pool = append(pool, rule)
				}
			case GroupWizards:
				if wizard {
					pool = append(pool, rule)
				}
			}
		}
	}
	return pool, nil
}

// sortRules orders the pool deterministically: effect, then actor type,
// then weight, then rule ID. Evaluation no longer depends on this order
// (deny wins regardless of position) but stable output matters for
// introspection and tests.
func sortRules(pool []Rule) {
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.Effect != b.Effect {
			return a.Effect < b.Effect
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.ID < b.ID
	})
}

func (e *Engine) denied(actor Actor, permission string, subject Subject, fatal bool, reason string) (bool, error) {
	if !fatal {
		return false, nil
	}
	return false, oops.In("access").
		Code("PERMISSION_DENIED").
		With("actor_id", actor.ID.String()).
		With("permission", permission).
		With("subject_kind", string(subject.Kind)).
		With("subject_id", subject.ID.String()).
		With("reason", reason).
		Wrap(ErrPermissionDenied)
}
