// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/world"
)

// VerbRepository implements world.VerbRepository using PostgreSQL.
type VerbRepository struct {
	pool querier
}

// NewVerbRepository creates a new VerbRepository.
func NewVerbRepository(pool querier) *VerbRepository {
	return &VerbRepository{pool: pool}
}

const verbColumns = `id, origin_id, names, code, owner_id, ability, method, created_at`

// Get retrieves a verb by ID.
func (r *VerbRepository) Get(ctx context.Context, id ulid.ULID) (*world.Verb, error) {
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		SELECT `+verbColumns+`
		FROM verbs WHERE id = $1
	`, id.String())

	verb, err := scanVerbRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("VERB_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("VERB_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return verb, nil
}

// ListByOrigin returns all verbs defined on origin, ordered by creation.
func (r *VerbRepository) ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*world.Verb, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+verbColumns+`
		FROM verbs WHERE origin_id = $1
		ORDER BY created_at, id
	`, originID.String())
	if err != nil {
		return nil, oops.Code("VERB_QUERY_FAILED").With("origin_id", originID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanVerbs(rows)
}

// Create persists a new verb and its names.
func (r *VerbRepository) Create(ctx context.Context, v *world.Verb) error {
	namesJSON, err := marshalStringSlice(v.Names)
	if err != nil {
		return oops.Code("VERB_CREATE_FAILED").With("id", v.ID.String()).Wrap(err)
	}
	_, err = querierFromCtx(ctx, r.pool).Exec(ctx, `
		INSERT INTO verbs (id, origin_id, names, code, owner_id, ability, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, v.ID.String(), v.OriginID.String(), namesJSON, v.Code,
		ulidToStringPtr(v.OwnerID), v.Ability, v.Method)
	if err != nil {
		return oops.Code("VERB_CREATE_FAILED").With("id", v.ID.String()).Wrap(err)
	}
	return nil
}

// Update replaces a verb's code, flags, and names.
func (r *VerbRepository) Update(ctx context.Context, v *world.Verb) error {
	namesJSON, err := marshalStringSlice(v.Names)
	if err != nil {
		return oops.Code("VERB_UPDATE_FAILED").With("id", v.ID.String()).Wrap(err)
	}
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		UPDATE verbs
		SET names = $2, code = $3, owner_id = $4, ability = $5, method = $6
		WHERE id = $1
	`, v.ID.String(), namesJSON, v.Code, ulidToStringPtr(v.OwnerID), v.Ability, v.Method)
	if err != nil {
		return oops.Code("VERB_UPDATE_FAILED").With("id", v.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("VERB_NOT_FOUND").With("id", v.ID.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// Delete removes a verb by ID.
func (r *VerbRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM verbs WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("VERB_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("VERB_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

type verbScanFields struct {
	idStr     string
	originStr string
	namesJSON []byte
	ownerStr  *string
}

func scanVerbRow(row pgx.Row) (*world.Verb, error) {
	var verb world.Verb
	var f verbScanFields
	err := row.Scan(&f.idStr, &f.originStr, &f.namesJSON, &verb.Code,
		&f.ownerStr, &verb.Ability, &verb.Method, &verb.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := parseVerbFromFields(&f, &verb); err != nil {
		return nil, err
	}
	return &verb, nil
}

func parseVerbFromFields(f *verbScanFields, verb *world.Verb) error {
	var err error
	verb.ID, err = ulid.Parse(f.idStr)
	if err != nil {
		return oops.Code("VERB_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	verb.OriginID, err = ulid.Parse(f.originStr)
	if err != nil {
		return oops.Code("VERB_PARSE_FAILED").With("field", "origin_id").With("value", f.originStr).Wrap(err)
	}
	verb.OwnerID, err = parseOptionalULID(f.ownerStr, "owner_id")
	if err != nil {
		return oops.Code("VERB_PARSE_FAILED").With("field", "owner_id").Wrap(err)
	}
	verb.Names, err = unmarshalStringSlice(f.namesJSON)
	if err != nil {
		return oops.Code("VERB_PARSE_FAILED").With("field", "names").Wrap(err)
	}
	return nil
}

func scanVerbs(rows pgx.Rows) ([]*world.Verb, error) {
	verbs := make([]*world.Verb, 0)
	for rows.Next() {
		var verb world.Verb
		var f verbScanFields
		if err := rows.Scan(&f.idStr, &f.originStr, &f.namesJSON, &verb.Code,
			&f.ownerStr, &verb.Ability, &verb.Method, &verb.CreatedAt); err != nil {
			return nil, oops.Code("VERB_SCAN_FAILED").Wrap(err)
		}
		if err := parseVerbFromFields(&f, &verb); err != nil {
			return nil, err
		}
		verbs = append(verbs, &verb)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("VERB_ITERATE_FAILED").Wrap(err)
	}
	return verbs, nil
}

// Compile-time interface check.
var _ world.VerbRepository = (*VerbRepository)(nil)
