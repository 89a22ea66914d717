// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a player does not exist.
	ErrNotFound = errors.New("player not found")

	// ErrInvalidCredentials is returned on a username or password mismatch.
	// Callers must not distinguish which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrUsernameTaken is returned when registering a username that exists.
	ErrUsernameTaken = errors.New("username already taken")
)
