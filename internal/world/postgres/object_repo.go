// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/world"
)

// ObjectRepository implements world.ObjectRepository using PostgreSQL.
type ObjectRepository struct {
	pool querier
}

// NewObjectRepository creates a new ObjectRepository.
func NewObjectRepository(pool querier) *ObjectRepository {
	return &ObjectRepository{pool: pool}
}

const objectColumns = `id, name, unique_name, obvious, owner_id, location_id, aliases, created_at`

const prefixedObjectColumns = `o.id, o.name, o.unique_name, o.obvious, o.owner_id, o.location_id, o.aliases, o.created_at`

// Get retrieves an object by ID.
func (r *ObjectRepository) Get(ctx context.Context, id ulid.ULID) (*world.Object, error) {
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE id = $1
	`, id.String())

	obj, err := scanObjectRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("OBJECT_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("OBJECT_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return obj, nil
}

// GetByName retrieves the live object claiming name with unique_name set.
func (r *ObjectRepository) GetByName(ctx context.Context, name string) (*world.Object, error) {
	row := querierFromCtx(ctx, r.pool).QueryRow(ctx, `
		SELECT `+objectColumns+`
		FROM objects WHERE unique_name AND lower(name) = lower($1)
	`, name)

	obj, err := scanObjectRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("OBJECT_NOT_FOUND").With("name", name).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("OBJECT_GET_FAILED").With("name", name).Wrap(err)
	}
	return obj, nil
}

// Create persists a new object. A unique_name collision surfaces as
// world.ErrDuplicateName.
func (r *ObjectRepository) Create(ctx context.Context, obj *world.Object) error {
	aliasesJSON, err := marshalStringSlice(obj.Aliases)
	if err != nil {
		return oops.Code("OBJECT_CREATE_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	_, err = querierFromCtx(ctx, r.pool).Exec(ctx, `
		INSERT INTO objects (id, name, unique_name, obvious, owner_id, location_id, aliases, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, obj.ID.String(), obj.Name, obj.UniqueName, obj.Obvious,
		ulidToStringPtr(obj.OwnerID), ulidToStringPtr(obj.LocationID), aliasesJSON)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("OBJECT_DUPLICATE_NAME").
				With("name", obj.Name).
				Wrapf(world.ErrDuplicateName, "an object named %q already exists", obj.Name)
		}
		return oops.Code("OBJECT_CREATE_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	return nil
}

// Update modifies an existing object.
func (r *ObjectRepository) Update(ctx context.Context, obj *world.Object) error {
	aliasesJSON, err := marshalStringSlice(obj.Aliases)
	if err != nil {
		return oops.Code("OBJECT_UPDATE_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		UPDATE objects
		SET name = $2, unique_name = $3, obvious = $4, owner_id = $5, location_id = $6, aliases = $7
		WHERE id = $1
	`, obj.ID.String(), obj.Name, obj.UniqueName, obj.Obvious,
		ulidToStringPtr(obj.OwnerID), ulidToStringPtr(obj.LocationID), aliasesJSON)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("OBJECT_DUPLICATE_NAME").
				With("name", obj.Name).
				Wrapf(world.ErrDuplicateName, "an object named %q already exists", obj.Name)
		}
		return oops.Code("OBJECT_UPDATE_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("OBJECT_NOT_FOUND").With("id", obj.ID.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// Delete removes an object by ID. The relationships table restricts
// deletion while the object is referenced as a parent.
func (r *ObjectRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM objects WHERE id = $1`, id.String())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return oops.Code("OBJECT_STILL_PARENT").
				With("id", id.String()).
				Wrapf(world.ErrInvariantViolation, "object %s is still referenced as a parent", id)
		}
		return oops.Code("OBJECT_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("OBJECT_NOT_FOUND").With("id", id.String()).Wrap(world.ErrNotFound)
	}
	return nil
}

// Parents returns the direct parents of child, ordered by edge weight
// ascending then parent ID ascending. The resolver's walk order depends on
// this.
func (r *ObjectRepository) Parents(ctx context.Context, childID ulid.ULID) ([]*world.Object, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+prefixedObjectColumns+`
		FROM objects o
		JOIN relationships rel ON rel.parent_id = o.id
		WHERE rel.child_id = $1
		ORDER BY rel.weight, o.id
	`, childID.String())
	if err != nil {
		return nil, oops.Code("OBJECT_QUERY_FAILED").With("child_id", childID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanObjects(rows)
}

// Children returns the direct children of parent, ordered by edge weight
// ascending then child ID ascending.
func (r *ObjectRepository) Children(ctx context.Context, parentID ulid.ULID) ([]*world.Object, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+prefixedObjectColumns+`
		FROM objects o
		JOIN relationships rel ON rel.child_id = o.id
		WHERE rel.parent_id = $1
		ORDER BY rel.weight, o.id
	`, parentID.String())
	if err != nil {
		return nil, oops.Code("OBJECT_QUERY_FAILED").With("parent_id", parentID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanObjects(rows)
}

// AddParent inserts a relationship edge.
func (r *ObjectRepository) AddParent(ctx context.Context, rel world.Relationship) error {
	_, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		INSERT INTO relationships (child_id, parent_id, weight)
		VALUES ($1, $2, $3)
	`, rel.ChildID.String(), rel.ParentID.String(), rel.Weight)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("RELATIONSHIP_EXISTS").
				With("child_id", rel.ChildID.String()).
				With("parent_id", rel.ParentID.String()).
				Wrapf(world.ErrInvariantViolation, "edge already exists")
		}
		return oops.Code("RELATIONSHIP_CREATE_FAILED").Wrap(err)
	}
	return nil
}

// RemoveParent deletes the (child, parent) edge.
func (r *ObjectRepository) RemoveParent(ctx context.Context, childID, parentID ulid.ULID) error {
	result, err := querierFromCtx(ctx, r.pool).Exec(ctx, `
		DELETE FROM relationships WHERE child_id = $1 AND parent_id = $2
	`, childID.String(), parentID.String())
	if err != nil {
		return oops.Code("RELATIONSHIP_DELETE_FAILED").Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RELATIONSHIP_NOT_FOUND").
			With("child_id", childID.String()).
			With("parent_id", parentID.String()).
			Wrap(world.ErrNotFound)
	}
	return nil
}

// FindContents returns objects located inside container whose name or
// alias matches name case-insensitively.
func (r *ObjectRepository) FindContents(ctx context.Context, containerID ulid.ULID, name string) ([]*world.Object, error) {
	rows, err := querierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT `+objectColumns+`
		FROM objects
		WHERE location_id = $1
		  AND (lower(name) = lower($2)
		       OR EXISTS (
		           SELECT 1 FROM jsonb_array_elements_text(aliases) AS a(alias)
		           WHERE lower(a.alias) = lower($2)))
		ORDER BY id
	`, containerID.String(), name)
	if err != nil {
		return nil, oops.Code("OBJECT_QUERY_FAILED").With("container_id", containerID.String()).Wrap(err)
	}
	defer rows.Close()
	return scanObjects(rows)
}

// objectScanFields holds intermediate scan values.
type objectScanFields struct {
	idStr       string
	ownerStr    *string
	locationStr *string
	aliasesJSON []byte
}

func scanObjectRow(row pgx.Row) (*world.Object, error) {
	var obj world.Object
	var f objectScanFields
	err := row.Scan(&f.idStr, &obj.Name, &obj.UniqueName, &obj.Obvious,
		&f.ownerStr, &f.locationStr, &f.aliasesJSON, &obj.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := parseObjectFromFields(&f, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

func parseObjectFromFields(f *objectScanFields, obj *world.Object) error {
	var err error
	obj.ID, err = ulid.Parse(f.idStr)
	if err != nil {
		return oops.Code("OBJECT_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	obj.OwnerID, err = parseOptionalULID(f.ownerStr, "owner_id")
	if err != nil {
		return oops.Code("OBJECT_PARSE_FAILED").With("field", "owner_id").Wrap(err)
	}
	obj.LocationID, err = parseOptionalULID(f.locationStr, "location_id")
	if err != nil {
		return oops.Code("OBJECT_PARSE_FAILED").With("field", "location_id").Wrap(err)
	}
	obj.Aliases, err = unmarshalStringSlice(f.aliasesJSON)
	if err != nil {
		return oops.Code("OBJECT_PARSE_FAILED").With("field", "aliases").Wrap(err)
	}
	return nil
}

func scanObjects(rows pgx.Rows) ([]*world.Object, error) {
	objects := make([]*world.Object, 0)
	for rows.Next() {
		var obj world.Object
		var f objectScanFields
		if err := rows.Scan(&f.idStr, &obj.Name, &obj.UniqueName, &obj.Obvious,
			&f.ownerStr, &f.locationStr, &f.aliasesJSON, &obj.CreatedAt); err != nil {
			return nil, oops.Code("OBJECT_SCAN_FAILED").Wrap(err)
		}
		if err := parseObjectFromFields(&f, &obj); err != nil {
			return nil, err
		}
		objects = append(objects, &obj)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("OBJECT_ITERATE_FAILED").Wrap(err)
	}
	return objects, nil
}

// Compile-time interface check.
var _ world.ObjectRepository = (*ObjectRepository)(nil)
