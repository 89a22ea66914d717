// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/access"
)

// RuleRepository implements access.RuleRepository using PostgreSQL.
//
// The subject's owner column is denormalized onto each rule row so the
// engine can evaluate the owners group without a second lookup. The write
// paths keep it current because rules are always created and deleted
// through the world service, inside the same transaction that touches the
// subject.
type RuleRepository struct {
	pool querier
}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository(pool querier) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, subject_kind, subject_id, subject_owner_id, effect, permission, actor_type, accessor_id, group_name, weight`

// Matching returns all rules on subject whose permission equals permission
// or the "anything" wildcard.
func (r *RuleRepository) Matching(ctx context.Context, subject access.Subject, permission string) ([]access.Rule, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+ruleColumns+`
		FROM access_rules
		WHERE subject_kind = $1 AND subject_id = $2
		  AND permission IN ($3, $4)
	`, string(subject.Kind), subject.ID.String(), permission, access.PermAnything)
	if err != nil {
		return nil, oops.Code("RULE_QUERY_FAILED").
			With("subject_kind", string(subject.Kind)).
			With("subject_id", subject.ID.String()).
			Wrap(err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// Create persists a rule. The generated row ID is written back.
func (r *RuleRepository) Create(ctx context.Context, rule *access.Rule) error {
	var group *string
	if rule.Group != "" {
		g := string(rule.Group)
		group = &g
	}
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO access_rules
			(subject_kind, subject_id, subject_owner_id, effect, permission, actor_type, accessor_id, group_name, weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, string(rule.Subject.Kind), rule.Subject.ID.String(), ulidToStringPtr(rule.Subject.Owner),
		string(rule.Effect), rule.Permission, string(rule.Type),
		ulidToStringPtr(rule.AccessorID), group, rule.Weight)

	if err := row.Scan(&rule.ID); err != nil {
		return oops.Code("RULE_CREATE_FAILED").
			With("subject_id", rule.Subject.ID.String()).
			With("permission", rule.Permission).
			Wrap(err)
	}
	return nil
}

// Delete removes all rules on subject matching the effect, permission, and
// actor selector of the template, returning the number removed.
func (r *RuleRepository) Delete(ctx context.Context, rule access.Rule) (int64, error) {
	var group *string
	if rule.Group != "" {
		g := string(rule.Group)
		group = &g
	}
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		DELETE FROM access_rules
		WHERE subject_kind = $1 AND subject_id = $2
		  AND effect = $3 AND permission = $4 AND actor_type = $5
		  AND accessor_id IS NOT DISTINCT FROM $6
		  AND group_name IS NOT DISTINCT FROM $7
	`, string(rule.Subject.Kind), rule.Subject.ID.String(),
		string(rule.Effect), rule.Permission, string(rule.Type),
		ulidToStringPtr(rule.AccessorID), group)
	if err != nil {
		return 0, oops.Code("RULE_DELETE_FAILED").
			With("subject_id", rule.Subject.ID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ListBySubject returns every rule on subject, ordered for display.
func (r *RuleRepository) ListBySubject(ctx context.Context, subject access.Subject) ([]access.Rule, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+ruleColumns+`
		FROM access_rules
		WHERE subject_kind = $1 AND subject_id = $2
		ORDER BY weight, id
	`, string(subject.Kind), subject.ID.String())
	if err != nil {
		return nil, oops.Code("RULE_QUERY_FAILED").
			With("subject_kind", string(subject.Kind)).
			With("subject_id", subject.ID.String()).
			Wrap(err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows pgx.Rows) ([]access.Rule, error) {
	rules := make([]access.Rule, 0)
	for rows.Next() {
		var rule access.Rule
		var kindStr, subjectIDStr, effectStr, typeStr string
		var subjectOwnerStr, accessorStr, groupStr *string
		if err := rows.Scan(&rule.ID, &kindStr, &subjectIDStr, &subjectOwnerStr,
			&effectStr, &rule.Permission, &typeStr, &accessorStr, &groupStr, &rule.Weight); err != nil {
			return nil, oops.Code("RULE_SCAN_FAILED").Wrap(err)
		}

		subjectID, err := ulid.Parse(subjectIDStr)
		if err != nil {
			return nil, oops.Code("RULE_PARSE_FAILED").With("field", "subject_id").With("value", subjectIDStr).Wrap(err)
		}
		subjectOwner, err := parseOptionalULID(subjectOwnerStr, "subject_owner_id")
		if err != nil {
			return nil, oops.Code("RULE_PARSE_FAILED").With("field", "subject_owner_id").Wrap(err)
		}
		rule.Subject = access.Subject{
			Kind:  access.SubjectKind(kindStr),
			ID:    subjectID,
			Owner: subjectOwner,
		}
		rule.Effect = access.RuleEffect(effectStr)
		rule.Type = access.ActorType(typeStr)
		rule.AccessorID, err = parseOptionalULID(accessorStr, "accessor_id")
		if err != nil {
			return nil, oops.Code("RULE_PARSE_FAILED").With("field", "accessor_id").Wrap(err)
		}
		if groupStr != nil {
			rule.Group = access.Group(*groupStr)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("RULE_ITERATE_FAILED").Wrap(err)
	}
	return rules, nil
}

// Compile-time interface check.
var _ access.RuleRepository = (*RuleRepository)(nil)
