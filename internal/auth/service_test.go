// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bubblehouse/gomoo/internal/auth"
)

// memoryPlayers is an in-memory PlayerRepository for service tests.
type memoryPlayers struct {
	players map[ulid.ULID]*auth.Player
}

func newMemoryPlayers() *memoryPlayers {
	return &memoryPlayers{players: make(map[ulid.ULID]*auth.Player)}
}

func (m *memoryPlayers) Create(_ context.Context, player *auth.Player) error {
	for _, p := range m.players {
		if strings.EqualFold(p.Username, player.Username) {
			return oops.Code("PLAYER_USERNAME_TAKEN").Wrap(auth.ErrUsernameTaken)
		}
	}
	cp := *player
	m.players[player.ID] = &cp
	return nil
}

func (m *memoryPlayers) GetByID(_ context.Context, id ulid.ULID) (*auth.Player, error) {
	p, ok := m.players[id]
	if !ok {
		return nil, oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPlayers) GetByUsername(_ context.Context, username string) (*auth.Player, error) {
	for _, p := range m.players {
		if strings.EqualFold(p.Username, username) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (m *memoryPlayers) GetByAvatar(_ context.Context, avatarID ulid.ULID) (*auth.Player, error) {
	for _, p := range m.players {
		if p.AvatarID != nil && *p.AvatarID == avatarID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

func (m *memoryPlayers) Update(_ context.Context, player *auth.Player) error {
	if _, ok := m.players[player.ID]; !ok {
		return oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	cp := *player
	m.players[player.ID] = &cp
	return nil
}

func (m *memoryPlayers) Delete(_ context.Context, id ulid.ULID) error {
	if _, ok := m.players[id]; !ok {
		return oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	delete(m.players, id)
	return nil
}

func (m *memoryPlayers) IsWizard(_ context.Context, avatarID ulid.ULID) (bool, error) {
	for _, p := range m.players {
		if p.AvatarID != nil && *p.AvatarID == avatarID {
			return p.Wizard, nil
		}
	}
	return false, nil
}

var _ auth.PlayerRepository = (*memoryPlayers)(nil)

// plainHasher avoids argon2 cost in service tests; hashing behavior has its
// own tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, hash string) (bool, error) {
	return hash == "plain:"+password, nil
}

func newAuthService(repo auth.PlayerRepository) *auth.Service {
	return auth.NewService(auth.ServiceConfig{Players: repo, Hasher: plainHasher{}})
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	player, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, "wizard", player.Username)
	assert.NotEqual(t, "opensesame", player.PasswordHash, "password never stored raw")

	got, err := svc.Authenticate(ctx, "wizard", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, player.ID, got.ID)
}

func TestService_RegisterRejectsInvalidUsername(t *testing.T) {
	svc := newAuthService(newMemoryPlayers())

	_, err := svc.Register(context.Background(), "9lives", "opensesame")
	require.Error(t, err)
}

func TestService_RegisterDuplicateUsername(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Wizard", "different")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrUsernameTaken), "usernames collide case-insensitively")
}

func TestService_AuthenticateUnknownUser(t *testing.T) {
	svc := newAuthService(newMemoryPlayers())

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials),
		"unknown user and wrong password are indistinguishable")
}

func TestService_AuthenticateWrongPassword(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	player, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "wizard", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))

	stored, err := repo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedAttempts, "failure persisted")
}

func TestService_LockoutAfterRepeatedFailures(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)

	for i := 0; i < auth.MaxFailedAttempts; i++ {
		_, err = svc.Authenticate(ctx, "wizard", "wrong")
		require.Error(t, err)
	}

	// The correct password is rejected while the window is active.
	_, err = svc.Authenticate(ctx, "wizard", "opensesame")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrAccountLocked))
}

func TestService_SuccessClearsFailureCount(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	player, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "wizard", "wrong")
	require.Error(t, err)

	_, err = svc.Authenticate(ctx, "wizard", "opensesame")
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestService_BindAvatarAndWizardFlag(t *testing.T) {
	repo := newMemoryPlayers()
	svc := newAuthService(repo)
	ctx := context.Background()

	player, err := svc.Register(ctx, "wizard", "opensesame")
	require.NoError(t, err)
	avatarID := ulid.Make()

	require.NoError(t, svc.BindAvatar(ctx, player.ID, avatarID))

	bound, err := repo.GetByAvatar(ctx, avatarID)
	require.NoError(t, err)
	assert.Equal(t, player.ID, bound.ID)

	wizard, err := repo.IsWizard(ctx, avatarID)
	require.NoError(t, err)
	assert.False(t, wizard)

	require.NoError(t, svc.SetWizard(ctx, player.ID, true))
	wizard, err = repo.IsWizard(ctx, avatarID)
	require.NoError(t, err)
	assert.True(t, wizard)
}
