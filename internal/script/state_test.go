// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFactory_SafeLibrariesLoaded(t *testing.T) {
	factory := NewStateFactory()
	L, err := factory.NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	scripts := []string{
		`assert(string.upper("abc") == "ABC")`,
		`assert(math.floor(3.7) == 3)`,
		`local t = {} table.insert(t, "x") assert(#t == 1)`,
		`assert(tostring(42) == "42")`,
	}
	for _, script := range scripts {
		assert.NoError(t, L.DoString(script), script)
	}
}

func TestStateFactory_UnsafeLibrariesBlocked(t *testing.T) {
	factory := NewStateFactory()
	L, err := factory.NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"os", "io", "debug", "package"} {
		script := `assert(` + name + ` == nil, "` + name + ` should not be loaded")`
		assert.NoError(t, L.DoString(script), name)
	}
}

func TestStateFactory_UnsafeBaseFunctionsRemoved(t *testing.T) {
	factory := NewStateFactory()
	L, err := factory.NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"dofile", "loadfile", "loadstring", "load"} {
		script := `assert(` + name + ` == nil, "` + name + ` should be removed")`
		assert.NoError(t, L.DoString(script), name)
	}
}

func TestStateFactory_ContextAbortsRunningChunk(t *testing.T) {
	factory := NewStateFactory()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	L, err := factory.NewState(ctx)
	require.NoError(t, err)
	defer L.Close()

	err = L.DoString(`while true do end`)
	require.Error(t, err, "expired context must abort the loop")
}

func TestStateFactory_StatesAreIsolated(t *testing.T) {
	factory := NewStateFactory()
	ctx := context.Background()

	first, err := factory.NewState(ctx)
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.DoString(`leaked = "value"`))

	second, err := factory.NewState(ctx)
	require.NoError(t, err)
	defer second.Close()
	assert.NoError(t, second.DoString(`assert(leaked == nil, "globals must not leak between states")`))
}
