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

// PropertyRepository implements world.PropertyRepository using PostgreSQL.
type PropertyRepository struct {
	pool querier
}

// NewPropertyRepository creates a new PropertyRepository.
func NewPropertyRepository(pool querier) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

const propertyColumns = `id, origin_id, name, value, type, owner_id, inherited, created_at, updated_at`

// GetByOrigin retrieves the property named name defined on origin.
func (r *PropertyRepository) GetByOrigin(ctx context.Context, originID ulid.ULID, name string) (*world.Property, error) {
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties WHERE origin_id = $1 AND name = $2
	`, originID.String(), name)

	prop, err := scanPropertyRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROPERTY_NOT_FOUND").
			With("origin_id", originID.String()).
			With("name", name).
			Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROPERTY_GET_FAILED").With("origin_id", originID.String()).Wrap(err)
	}
	return prop, nil
}

// ListByOrigin returns all properties defined on origin, ordered by name.
func (r *PropertyRepository) ListByOrigin(ctx context.Context, originID ulid.ULID) ([]*world.Property, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+propertyColumns+`
		FROM properties WHERE origin_id = $1
		ORDER BY name
	`, originID.String())
	if err != nil {
		return nil, oops.Code("PROPERTY_QUERY_FAILED").With("origin_id", originID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

// ListInherited returns origin's properties with the inherited flag set.
func (r *PropertyRepository) ListInherited(ctx context.Context, originID ulid.ULID) ([]*world.Property, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+propertyColumns+`
		FROM properties WHERE origin_id = $1 AND inherited
		ORDER BY name
	`, originID.String())
	if err != nil {
		return nil, oops.Code("PROPERTY_QUERY_FAILED").With("origin_id", originID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanProperties(rows)
}

// Upsert creates or replaces the (origin, name) definition. On conflict the
// existing row's ID is preserved and written back to p.
func (r *PropertyRepository) Upsert(ctx context.Context, p *world.Property) (bool, error) {
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO properties (id, origin_id, name, value, type, owner_id, inherited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (origin_id, name) DO UPDATE
		SET value = EXCLUDED.value,
		    type = EXCLUDED.type,
		    owner_id = EXCLUDED.owner_id,
		    inherited = EXCLUDED.inherited,
		    updated_at = now()
		RETURNING id, (created_at = updated_at)
	`, p.ID.String(), p.OriginID.String(), p.Name, p.Value, string(p.Type),
		ulidToStringPtr(p.OwnerID), p.Inherited)

	var idStr string
	var created bool
	if err := row.Scan(&idStr, &created); err != nil {
		return false, oops.Code("PROPERTY_UPSERT_FAILED").
			With("origin_id", p.OriginID.String()).
			With("name", p.Name).
			Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return false, oops.Code("PROPERTY_PARSE_FAILED").With("id", idStr).Wrap(err)
	}
	p.ID = id
	return created, nil
}

// Delete removes a property definition.
func (r *PropertyRepository) Delete(ctx context.Context, originID ulid.ULID, name string) error {
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		DELETE FROM properties WHERE origin_id = $1 AND name = $2
	`, originID.String(), name)
	if err != nil {
		return oops.Code("PROPERTY_DELETE_FAILED").With("origin_id", originID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROPERTY_NOT_FOUND").
			With("origin_id", originID.String()).
			With("name", name).
			Wrap(world.ErrNotFound)
	}
	return nil
}

type propertyScanFields struct {
	idStr     string
	originStr string
	typeStr   string
	ownerStr  *string
}

func scanPropertyRow(row pgx.Row) (*world.Property, error) {
	var prop world.Property
	var f propertyScanFields
	err := row.Scan(&f.idStr, &f.originStr, &prop.Name, &prop.Value, &f.typeStr,
		&f.ownerStr, &prop.Inherited, &prop.CreatedAt, &prop.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := parsePropertyFromFields(&f, &prop); err != nil {
		return nil, err
	}
	return &prop, nil
}

func parsePropertyFromFields(f *propertyScanFields, prop *world.Property) error {
	var err error
	prop.ID, err = ulid.Parse(f.idStr)
	if err != nil {
		return oops.Code("PROPERTY_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	prop.OriginID, err = ulid.Parse(f.originStr)
	if err != nil {
		return oops.Code("PROPERTY_PARSE_FAILED").With("field", "origin_id").With("value", f.originStr).Wrap(err)
	}
	prop.Type = world.PropertyType(f.typeStr)
	prop.OwnerID, err = parseOptionalULID(f.ownerStr, "owner_id")
	if err != nil {
		return oops.Code("PROPERTY_PARSE_FAILED").With("field", "owner_id").Wrap(err)
	}
	return nil
}

func scanProperties(rows pgx.Rows) ([]*world.Property, error) {
	props := make([]*world.Property, 0)
	for rows.Next() {
		var prop world.Property
		var f propertyScanFields
		if err := rows.Scan(&f.idStr, &f.originStr, &prop.Name, &prop.Value, &f.typeStr,
			&f.ownerStr, &prop.Inherited, &prop.CreatedAt, &prop.UpdatedAt); err != nil {
			return nil, oops.Code("PROPERTY_SCAN_FAILED").Wrap(err)
		}
		if err := parsePropertyFromFields(&f, &prop); err != nil {
			return nil, err
		}
		props = append(props, &prop)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PROPERTY_ITERATE_FAILED").Wrap(err)
	}
	return props, nil
}

// Compile-time interface check.
var _ world.PropertyRepository = (*PropertyRepository)(nil)
