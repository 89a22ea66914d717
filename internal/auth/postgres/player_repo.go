// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bubblehouse/gomoo/internal/access"
	"github.com/bubblehouse/gomoo/internal/auth"
)

// querier is the slice of *pgxpool.Pool the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PlayerRepository implements auth.PlayerRepository using PostgreSQL. Its
// IsWizard method also satisfies the access engine's WizardRegistry.
type PlayerRepository struct {
	pool querier
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(pool querier) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

const playerColumns = `id, username, password_hash, avatar_id, wizard,
	       failed_attempts, locked_until, created_at, updated_at`

// Create stores a new player.
func (r *PlayerRepository) Create(ctx context.Context, player *auth.Player) error {
	var avatarID *string
	if player.AvatarID != nil {
		s := player.AvatarID.String()
		avatarID = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (
			id, username, password_hash, avatar_id, wizard,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		player.ID.String(),
		player.Username,
		player.PasswordHash,
		avatarID,
		player.Wizard,
		player.FailedAttempts,
		player.LockedUntil,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("PLAYER_USERNAME_TAKEN").
				With("username", player.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("PLAYER_CREATE_FAILED").
			With("username", player.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a player by ID.
func (r *PlayerRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE id = $1
	`, id.String())

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return player, nil
}

// GetByUsername retrieves a player by username (case-insensitive).
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE LOWER(username) = LOWER($1)
	`, username)

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").
			With("username", username).
			Wrap(err)
	}
	return player, nil
}

// GetByAvatar retrieves the player bound to the given avatar object.
func (r *PlayerRepository) GetByAvatar(ctx context.Context, avatarID ulid.ULID) (*auth.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE avatar_id = $1
	`, avatarID.String())

	player, err := r.scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("avatar_id", avatarID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").
			With("avatar_id", avatarID.String()).
			Wrap(err)
	}
	return player, nil
}

// Update updates an existing player.
func (r *PlayerRepository) Update(ctx context.Context, player *auth.Player) error {
	var avatarID *string
	if player.AvatarID != nil {
		s := player.AvatarID.String()
		avatarID = &s
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE players
		SET username = $2, password_hash = $3, avatar_id = $4, wizard = $5,
		    failed_attempts = $6, locked_until = $7, updated_at = $8
		WHERE id = $1
	`,
		player.ID.String(),
		player.Username,
		player.PasswordHash,
		avatarID,
		player.Wizard,
		player.FailedAttempts,
		player.LockedUntil,
		player.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PLAYER_UPDATE_FAILED").
			With("id", player.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").
			With("id", player.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a player.
func (r *PlayerRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("PLAYER_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// IsWizard reports whether avatarID belongs to a wizard player. An avatar
// bound to no player is not a wizard.
func (r *PlayerRepository) IsWizard(ctx context.Context, avatarID ulid.ULID) (bool, error) {
	var wizard bool
	err := r.pool.QueryRow(ctx, `
		SELECT wizard FROM players WHERE avatar_id = $1
	`, avatarID.String()).Scan(&wizard)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("PLAYER_GET_FAILED").
			With("avatar_id", avatarID.String()).
			Wrap(err)
	}
	return wizard, nil
}

func (r *PlayerRepository) scanPlayer(row pgx.Row) (*auth.Player, error) {
	var player auth.Player
	var idStr string
	var avatarStr *string

	err := row.Scan(
		&idStr,
		&player.Username,
		&player.PasswordHash,
		&avatarStr,
		&player.Wizard,
		&player.FailedAttempts,
		&player.LockedUntil,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	player.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PLAYER_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	if avatarStr != nil {
		avatarID, err := ulid.Parse(*avatarStr)
		if err != nil {
			return nil, oops.Code("PLAYER_PARSE_FAILED").With("field", "avatar_id").With("value", *avatarStr).Wrap(err)
		}
		player.AvatarID = &avatarID
	}
	return &player, nil
}

// Compile-time interface checks.
var (
	_ auth.PlayerRepository = (*PlayerRepository)(nil)
	_ access.WizardRegistry = (*PlayerRepository)(nil)
)
