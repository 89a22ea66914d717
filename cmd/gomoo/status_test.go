// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatusTable_Healthy(t *testing.T) {
	out := formatStatusTable(WorldStatus{
		DatabaseReachable: true,
		SchemaVersion:     "000001_initial",
		Objects:           42,
		Players:           3,
	})

	assert.Contains(t, out, "database reachable:")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "000001_initial")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "3")
	assert.NotContains(t, out, "error:")
}

func TestFormatStatusTable_Unreachable(t *testing.T) {
	out := formatStatusTable(WorldStatus{
		Error: "failed to connect: connection refused",
	})

	assert.Contains(t, out, "no")
	assert.Contains(t, out, "schema version:")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "connection refused")
	assert.NotContains(t, out, "objects:")
}

func TestNewStatusCmd_Flags(t *testing.T) {
	cmd := NewStatusCmd()

	assert.Equal(t, "status", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("json"))
	assert.NotNil(t, cmd.Flags().Lookup("database.url"))
}
