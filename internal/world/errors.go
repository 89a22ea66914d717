// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no definition was found by the resolver or a
// repository lookup. Recoverable: the caller decides the fallback.
var ErrNotFound = errors.New("not found")

// ErrInvariantViolation marks data-integrity and programming errors: a
// cycle in the ancestor graph, a half-propagated write. Fatal, never
// swallowed.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrDuplicateName is returned when a unique_name object would collide with
// a live object already claiming the name.
var ErrDuplicateName = errors.New("name already taken")

// AmbiguousError is returned when a lookup matched more than one candidate.
// It carries the candidates so the caller can disambiguate.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("more than one definition for %q: %s", e.Name, strings.Join(e.Candidates, ", "))
}

// IsAmbiguous reports whether err is an AmbiguousError.
func IsAmbiguous(err error) bool {
	var ae *AmbiguousError
	return errors.As(err, &ae)
}
