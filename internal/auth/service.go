// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ServiceConfig holds the dependencies for Service.
type ServiceConfig struct {
	Players PlayerRepository
	Hasher  PasswordHasher
	Logger  *slog.Logger
}

// Service implements account registration and login.
type Service struct {
	players PlayerRepository
	hasher  PasswordHasher
	logger  *slog.Logger
}

// NewService creates a Service from the given config.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{players: cfg.Players, hasher: cfg.Hasher, logger: logger}
}

// Register creates a new player account.
func (s *Service) Register(ctx context.Context, username, password string) (*Player, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.In("auth").Code("AUTH_HASH_FAILED").Wrap(err)
	}

	now := time.Now()
	player := &Player{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "player registered",
		slog.String("player_id", player.ID.String()),
		slog.String("username", username))
	return player, nil
}

// Authenticate verifies credentials and returns the player on success.
// Failures count toward the lockout threshold; a locked account rejects
// even correct passwords until the window expires.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Player, error) {
	player, err := s.players.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Hash anyway so the timing of unknown-user failures matches.
		_, _ = s.hasher.Hash(password)
		return nil, oops.In("auth").Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if player.IsLocked() {
		return nil, oops.In("auth").Code("AUTH_LOCKED").
			With("locked_until", player.LockedUntil).
			Wrap(ErrAccountLocked)
	}

	ok, err := s.hasher.Verify(password, player.PasswordHash)
	if err != nil {
		return nil, oops.In("auth").Code("AUTH_VERIFY_FAILED").Wrap(err)
	}
	if !ok {
		player.RecordFailure()
		if updateErr := s.players.Update(ctx, player); updateErr != nil {
			s.logger.ErrorContext(ctx, "failed to record login failure",
				slog.String("player_id", player.ID.String()),
				slog.String("error", updateErr.Error()))
		}
		return nil, oops.In("auth").Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if player.FailedAttempts > 0 || player.LockedUntil != nil {
		player.RecordSuccess()
		if updateErr := s.players.Update(ctx, player); updateErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear login failures",
				slog.String("player_id", player.ID.String()),
				slog.String("error", updateErr.Error()))
		}
	}

	s.logger.InfoContext(ctx, "player authenticated",
		slog.String("player_id", player.ID.String()),
		slog.String("username", player.Username))
	return player, nil
}

// BindAvatar points the player at its in-world avatar object.
func (s *Service) BindAvatar(ctx context.Context, playerID, avatarID ulid.ULID) error {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	player.AvatarID = &avatarID
	player.UpdatedAt = time.Now()
	return s.players.Update(ctx, player)
}

// SetWizard grants or revokes administrative status.
func (s *Service) SetWizard(ctx context.Context, playerID ulid.ULID, wizard bool) error {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return err
	}
	player.Wizard = wizard
	player.UpdatedAt = time.Now()
	if err := s.players.Update(ctx, player); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "wizard flag changed",
		slog.String("player_id", playerID.String()),
		slog.Bool("wizard", wizard))
	return nil
}
