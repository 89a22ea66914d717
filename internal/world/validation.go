// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Validation limits for domain types.
const (
	MaxNameLength  = 255
	MaxAliasCount  = 10
	MaxAliasLength = 50
	MaxVerbNames   = 10
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateName checks that a name is valid: non-empty, valid UTF-8, no
// control characters, within length limit.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: "name", Message: "must be valid UTF-8"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("exceeds maximum length of %d", MaxNameLength)}
	}
	if hasControlChars(name) {
		return &ValidationError{Field: "name", Message: "cannot contain control characters"}
	}
	return nil
}

// ValidateAliases checks an alias list: count, per-alias length and
// character rules. Aliases may contain '*' to mark abbreviations.
func ValidateAliases(aliases []string) error {
	if len(aliases) > MaxAliasCount {
		return &ValidationError{Field: "aliases", Message: fmt.Sprintf("exceeds maximum of %d aliases", MaxAliasCount)}
	}
	for _, alias := range aliases {
		if alias == "" {
			return &ValidationError{Field: "aliases", Message: "alias cannot be empty"}
		}
		if len(alias) > MaxAliasLength {
			return &ValidationError{Field: "aliases", Message: fmt.Sprintf("alias exceeds maximum length of %d", MaxAliasLength)}
		}
		if hasControlChars(alias) {
			return &ValidationError{Field: "aliases", Message: "alias cannot contain control characters"}
		}
	}
	return nil
}

// ValidateVerbNames checks a verb's name list: at least one name, within
// count and length limits.
func ValidateVerbNames(names []string) error {
	if len(names) == 0 {
		return &ValidationError{Field: "names", Message: "verb requires at least one name"}
	}
	if len(names) > MaxVerbNames {
		return &ValidationError{Field: "names", Message: fmt.Sprintf("exceeds maximum of %d names", MaxVerbNames)}
	}
	return ValidateAliases(names)
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
