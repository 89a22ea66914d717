// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package postgres

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ulidToStringPtr converts a ULID pointer to a string pointer for SQL
// parameters. Returns nil if the input is nil.
func ulidToStringPtr(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalULID parses an optional ULID string pointer into a ULID
// pointer. Returns nil if the input is nil. Wraps parse errors with the
// field name for context.
func parseOptionalULID(strPtr *string, fieldName string) (*ulid.ULID, error) {
	if strPtr == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*strPtr)
	if err != nil {
		return nil, oops.With("operation", "parse "+fieldName).With(fieldName, *strPtr).Wrap(err)
	}
	return &id, nil
}

// marshalStringSlice marshals a string slice to JSON bytes, treating nil as
// empty.
func marshalStringSlice(s []string) ([]byte, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, oops.With("operation", "marshal string slice").Wrap(err)
	}
	return b, nil
}

// unmarshalStringSlice unmarshals JSON bytes into a string slice. Returns
// an empty slice for nil or empty input.
func unmarshalStringSlice(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var result []string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, oops.With("operation", "unmarshal string slice").Wrap(err)
	}
	if result == nil {
		return []string{}, nil
	}
	return result, nil
}
