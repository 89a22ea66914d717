// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package auth manages player accounts: registration, password
// verification, and the wizard flag that the access engine's wizards
// group is evaluated against. A player is the out-of-world account; the
// avatar is the in-world object it acts through.
package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// Lockout policy: after MaxFailedAttempts consecutive failures the account
// is locked for LockoutDuration.
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 * time.Minute
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Player is an account record. AvatarID points at the in-world object the
// player controls; it is nil until an avatar is bound. Wizard marks the
// account as administrative, which the access engine consults when
// evaluating wizards-group rules against the avatar.
type Player struct {
	ID             ulid.ULID
	Username       string
	PasswordHash   string
	AvatarID       *ulid.ULID
	Wizard         bool
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLocked reports whether a lockout window is currently active.
func (p *Player) IsLocked() bool {
	return p.LockedUntil != nil && time.Now().Before(*p.LockedUntil)
}

// RecordFailure increments the failure counter and starts a lockout window
// once the threshold is reached.
func (p *Player) RecordFailure() {
	p.FailedAttempts++
	if p.FailedAttempts >= MaxFailedAttempts {
		until := time.Now().Add(LockoutDuration)
		p.LockedUntil = &until
	}
	p.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter and clears any lockout.
func (p *Player) RecordSuccess() {
	p.FailedAttempts = 0
	p.LockedUntil = nil
	p.UpdatedAt = time.Now()
}

// ValidateUsername validates a username: length bounds, leading letter,
// and the letters/numbers/underscores alphabet.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// PlayerRepository manages player persistence.
type PlayerRepository interface {
	// Create stores a new player. Returns ErrUsernameTaken on collision.
	Create(ctx context.Context, player *Player) error

	// GetByID retrieves a player by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Player, error)

	// GetByUsername retrieves a player by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Player, error)

	// GetByAvatar retrieves the player bound to the given avatar object.
	GetByAvatar(ctx context.Context, avatarID ulid.ULID) (*Player, error)

	// Update updates an existing player.
	Update(ctx context.Context, player *Player) error

	// Delete removes a player.
	Delete(ctx context.Context, id ulid.ULID) error

	// IsWizard reports whether avatarID belongs to a wizard player. An
	// unbound avatar is not a wizard.
	IsWizard(ctx context.Context, avatarID ulid.ULID) (bool, error)
}
