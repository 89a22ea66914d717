// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package script

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/bubblehouse/gomoo/internal/session"
	"github.com/bubblehouse/gomoo/internal/world"
)

// DefaultTimeout bounds a single verb execution.
const DefaultTimeout = 5 * time.Second

// ErrScriptFailed is returned when a verb body raises a Lua error.
var ErrScriptFailed = oops.Code("SCRIPT_FAILED").Errorf("verb execution failed")

// WorldAPI is the slice of the world service exposed to running verbs.
// It is set after construction because the service and the host reference
// each other.
type WorldAPI interface {
	GetObject(ctx context.Context, sess *session.Context, id ulid.ULID) (*world.Object, error)
	GetProperty(ctx context.Context, sess *session.Context, obj *world.Object, name string, recurse bool) (*world.Property, error)
	InvokeVerb(ctx context.Context, sess *session.Context, obj *world.Object, name string, args []string, opts world.InvokeOptions) error
}

// HostConfig holds the dependencies for Host.
type HostConfig struct {
	Factory *StateFactory
	Timeout time.Duration
	Logger  *slog.Logger
}

// Host runs verb code in per-invocation sandboxed Lua states. A fresh
// state per invocation keeps verbs from leaking globals into each other.
type Host struct {
	factory *StateFactory
	timeout time.Duration
	logger  *slog.Logger
	api     WorldAPI
}

// NewHost creates a Host from the given config.
func NewHost(cfg HostConfig) *Host {
	factory := cfg.Factory
	if factory == nil {
		factory = NewStateFactory()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{factory: factory, timeout: timeout, logger: logger}
}

// SetWorld wires the world API used by nested calls from verb code.
// Must be called before Invoke.
func (h *Host) SetWorld(api WorldAPI) { h.api = api }

// Invoke executes the verb's code. The session's top frame supplies the
// caller, this, and player globals; args arrive as a Lua table.
func (h *Host) Invoke(ctx context.Context, sess *session.Context, verb *world.Verb, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	L, err := h.factory.NewState(runCtx)
	if err != nil {
		return oops.In("script").Code("STATE_INIT_FAILED").Wrap(err)
	}
	defer L.Close()

	h.bindGlobals(runCtx, L, sess, verb, args)

	start := time.Now()
	if err := L.DoString(verb.Code); err != nil {
		h.logger.WarnContext(ctx, "verb raised an error",
			slog.String("verb_id", verb.ID.String()),
			slog.String("verb", verb.Name()),
			slog.String("error", err.Error()))
		return oops.In("script").
			Code("SCRIPT_FAILED").
			With("verb_id", verb.ID.String()).
			With("verb", verb.Name()).
			Wrapf(ErrScriptFailed, "%s: %v", verb.Annotated(), err)
	}

	h.logger.DebugContext(ctx, "verb executed",
		slog.String("verb_id", verb.ID.String()),
		slog.String("verb", verb.Name()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// bindGlobals installs the verb environment: identity globals from the
// session frame, the args table, and the builtin functions.
func (h *Host) bindGlobals(ctx context.Context, L *lua.LState, sess *session.Context, verb *world.Verb, args []string) {
	if sess.Active() {
		if top := sess.Top(); top != nil {
			L.SetGlobal("caller", lua.LString(top.Caller.String()))
			L.SetGlobal("this", lua.LString(top.This.String()))
			L.SetGlobal("player", lua.LString(top.Player.String()))
			L.SetGlobal("origin", lua.LString(top.Origin.String()))
			L.SetGlobal("verb", lua.LString(top.VerbName))
		}
	}

	argTable := L.NewTable()
	for _, a := range args {
		argTable.Append(lua.LString(a))
	}
	L.SetGlobal("args", argTable)

	L.SetGlobal("write", L.NewFunction(func(L *lua.LState) int {
		sess.Write(L.CheckString(1))
		return 0
	}))

	if h.api == nil {
		return
	}

	L.SetGlobal("getprop", L.NewFunction(func(L *lua.LState) int {
		obj, err := h.objectArg(ctx, L, sess, 1)
		if err != nil {
			L.RaiseError("getprop: %v", err)
			return 0
		}
		prop, err := h.api.GetProperty(ctx, sess, obj, L.CheckString(2), true)
		if err != nil {
			L.RaiseError("getprop: %v", err)
			return 0
		}
		if prop.Value == nil {
			L.Push(lua.LNil)
		} else {
			L.Push(lua.LString(*prop.Value))
		}
		return 1
	}))

	L.SetGlobal("invoke", L.NewFunction(func(L *lua.LState) int {
		obj, err := h.objectArg(ctx, L, sess, 1)
		if err != nil {
			L.RaiseError("invoke: %v", err)
			return 0
		}
		name := L.CheckString(2)
		var nested []string
		for i := 3; i <= L.GetTop(); i++ {
			nested = append(nested, L.CheckString(i))
		}
		if err := h.api.InvokeVerb(ctx, sess, obj, name, nested, world.InvokeOptions{}); err != nil {
			L.RaiseError("invoke %s: %v", name, err)
			return 0
		}
		return 0
	}))
}

// objectArg parses the Lua argument at position n as an object ID and
// loads the object through the world API.
func (h *Host) objectArg(ctx context.Context, L *lua.LState, sess *session.Context, n int) (*world.Object, error) {
	id, err := ulid.Parse(L.CheckString(n))
	if err != nil {
		return nil, oops.In("script").Code("BAD_OBJECT_ID").Wrap(err)
	}
	return h.api.GetObject(ctx, sess, id)
}

// Compile-time interface check.
var _ world.VerbInvoker = (*Host)(nil)
