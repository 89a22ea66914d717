// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package script_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bubblehouse/gomoo/internal/script"
	"github.com/bubblehouse/gomoo/internal/session"
	"github.com/bubblehouse/gomoo/internal/world"
	"github.com/bubblehouse/gomoo/pkg/errutil"
)

// fakeWorld is a minimal WorldAPI backed by fixed objects and properties.
type fakeWorld struct {
	objects     map[ulid.ULID]*world.Object
	properties  map[ulid.ULID]map[string]string
	invocations []fakeInvocation
}

type fakeInvocation struct {
	objID ulid.ULID
	name  string
	args  []string
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		objects:    make(map[ulid.ULID]*world.Object),
		properties: make(map[ulid.ULID]map[string]string),
	}
}

func (f *fakeWorld) addObject(name string) *world.Object {
	obj := &world.Object{ID: ulid.Make(), Name: name}
	f.objects[obj.ID] = obj
	return obj
}

func (f *fakeWorld) setProperty(obj *world.Object, name, value string) {
	if f.properties[obj.ID] == nil {
		f.properties[obj.ID] = make(map[string]string)
	}
	f.properties[obj.ID][name] = value
}

func (f *fakeWorld) GetObject(_ context.Context, _ *session.Context, id ulid.ULID) (*world.Object, error) {
	obj, ok := f.objects[id]
	if !ok {
		return nil, oops.Code("OBJECT_NOT_FOUND").Wrap(world.ErrNotFound)
	}
	return obj, nil
}

func (f *fakeWorld) GetProperty(_ context.Context, _ *session.Context, obj *world.Object, name string, _ bool) (*world.Property, error) {
	value, ok := f.properties[obj.ID][name]
	if !ok {
		return nil, oops.Code("PROPERTY_NOT_FOUND").Wrap(world.ErrNotFound)
	}
	return &world.Property{ID: ulid.Make(), OriginID: obj.ID, Name: name, Value: &value}, nil
}

func (f *fakeWorld) InvokeVerb(_ context.Context, _ *session.Context, obj *world.Object, name string, args []string, _ world.InvokeOptions) error {
	f.invocations = append(f.invocations, fakeInvocation{objID: obj.ID, name: name, args: args})
	return nil
}

func newHost(api script.WorldAPI) *script.Host {
	host := script.NewHost(script.HostConfig{})
	if api != nil {
		host.SetWorld(api)
	}
	return host
}

func testVerb(code string) *world.Verb {
	return &world.Verb{
		ID:       ulid.Make(),
		OriginID: ulid.Make(),
		Names:    []string{"test"},
		Code:     code,
		Method:   true,
	}
}

func TestHost_WriteReachesSessionWriter(t *testing.T) {
	var lines []string
	sess := session.New(ulid.Make(), func(line string) { lines = append(lines, line) })

	host := newHost(nil)
	err := host.Invoke(context.Background(), sess, testVerb(`write("You see a laboratory.")`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"You see a laboratory."}, lines)
}

func TestHost_ArgsTable(t *testing.T) {
	var lines []string
	sess := session.New(ulid.Make(), func(line string) { lines = append(lines, line) })

	host := newHost(nil)
	err := host.Invoke(context.Background(), sess,
		testVerb(`write(args[1] .. " and " .. args[2] .. " (" .. #args .. ")")`),
		[]string{"sword", "shield"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sword and shield (2)"}, lines)
}

func TestHost_FrameGlobals(t *testing.T) {
	var lines []string
	avatar := ulid.Make()
	this := ulid.Make()
	origin := ulid.Make()
	sess := session.New(avatar, func(line string) { lines = append(lines, line) })
	sess.Push(session.Frame{This: this, Origin: origin, VerbName: "look"}, false)

	host := newHost(nil)
	err := host.Invoke(context.Background(), sess, testVerb(`write(this) write(caller) write(verb)`), nil)
	require.NoError(t, err)

	require.Len(t, lines, 3)
	assert.Equal(t, this.String(), lines[0])
	assert.Equal(t, avatar.String(), lines[1])
	assert.Equal(t, "look", lines[2])
}

func TestHost_ScriptErrorIsWrapped(t *testing.T) {
	sess := session.New(ulid.Make(), nil)
	host := newHost(nil)

	err := host.Invoke(context.Background(), sess, testVerb(`error("boom")`), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, script.ErrScriptFailed))
	errutil.AssertErrorCode(t, err, "SCRIPT_FAILED")
}

func TestHost_GetProp(t *testing.T) {
	api := newFakeWorld()
	obj := api.addObject("The Laboratory")
	api.setProperty(obj, "description", "It is dusty.")

	var lines []string
	sess := session.New(ulid.Make(), func(line string) { lines = append(lines, line) })
	host := newHost(api)

	code := fmt.Sprintf(`write(getprop(%q, "description"))`, obj.ID.String())
	require.NoError(t, host.Invoke(context.Background(), sess, testVerb(code), nil))
	assert.Equal(t, []string{"It is dusty."}, lines)
}

func TestHost_GetPropMissingRaises(t *testing.T) {
	api := newFakeWorld()
	obj := api.addObject("The Laboratory")

	sess := session.New(ulid.Make(), nil)
	host := newHost(api)

	code := fmt.Sprintf(`getprop(%q, "no such thing")`, obj.ID.String())
	err := host.Invoke(context.Background(), sess, testVerb(code), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, script.ErrScriptFailed))
}

func TestHost_InvokeNestedVerb(t *testing.T) {
	api := newFakeWorld()
	obj := api.addObject("room")

	sess := session.New(ulid.Make(), nil)
	host := newHost(api)

	code := fmt.Sprintf(`invoke(%q, "describe", "briefly")`, obj.ID.String())
	require.NoError(t, host.Invoke(context.Background(), sess, testVerb(code), nil))

	require.Len(t, api.invocations, 1)
	assert.Equal(t, obj.ID, api.invocations[0].objID)
	assert.Equal(t, "describe", api.invocations[0].name)
	assert.Equal(t, []string{"briefly"}, api.invocations[0].args)
}

func TestHost_BadObjectIDRaises(t *testing.T) {
	api := newFakeWorld()
	sess := session.New(ulid.Make(), nil)
	host := newHost(api)

	err := host.Invoke(context.Background(), sess, testVerb(`getprop("not-a-ulid", "x")`), nil)
	require.Error(t, err)
}

func TestHost_TimeoutStopsRunawayVerb(t *testing.T) {
	sess := session.New(ulid.Make(), nil)
	host := script.NewHost(script.HostConfig{Timeout: 100 * time.Millisecond})

	start := time.Now()
	err := host.Invoke(context.Background(), sess, testVerb(`while true do end`), nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
