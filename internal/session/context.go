// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package session tracks the chain of verb activations for one top-level
// execution: who is acting, on which object, and on whose authority.
//
// A Context is created when a player command or scheduled task starts and is
// torn down when it completes. It is threaded explicitly through every call
// that needs the acting authority; it is never stored in a package-level
// variable and never shared between concurrent executions.
package session

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrEmptyStack is returned when Pop is called with no frames on the stack.
// This is a programming error, not a recoverable condition.
var ErrEmptyStack = errors.New("session: caller stack is empty")

// WriterFunc receives output produced by verbs during this session.
// The messaging layer supplies one per connection; tasks may use a logger.
type WriterFunc func(line string)

// Frame records a single verb activation.
type Frame struct {
	// Caller is the authority this frame was pushed with. For ordinary
	// nested calls it equals the session's effective caller at push time.
	Caller ulid.ULID
	// This is the object the verb was found on.
	This ulid.ULID
	// VerbName is the name the verb was invoked by.
	VerbName string
	// Origin is the object the verb definition lives on. Equal to This in
	// normal dispatch; differs when the verb was inherited.
	Origin ulid.ULID
	// Player is the human session's avatar, stable across nested calls.
	Player ulid.ULID
	// PreviousCaller is set only when this frame changed the effective
	// caller (an elevated push). Pop restores it.
	PreviousCaller *ulid.ULID
}

// Context is the per-execution call stack. Not safe for concurrent use:
// each top-level execution owns exactly one Context.
type Context struct {
	player    ulid.ULID
	effective ulid.ULID
	writer    WriterFunc
	taskID    string
	frames    []Frame
}

// New creates a Context for a top-level execution acting as caller.
// The player defaults to the caller; use NewForPlayer when a task runs
// on behalf of a different avatar.
func New(caller ulid.ULID, writer WriterFunc) *Context {
	return NewForPlayer(caller, caller, writer)
}

// NewForPlayer creates a Context whose effective caller and player differ,
// as when a scheduled task acts with one authority but reports to another.
func NewForPlayer(caller, player ulid.ULID, writer WriterFunc) *Context {
	return &Context{
		player:    player,
		effective: caller,
		writer:    writer,
	}
}

// SetTaskID tags the context with the asynchronous task that spawned it.
func (c *Context) SetTaskID(id string) { c.taskID = id }

// TaskID returns the spawning task ID, if any.
func (c *Context) TaskID() string { return c.taskID }

// Active reports whether a session is in progress. It is nil-receiver-safe
// so bootstrap and maintenance code can pass a nil *Context and have
// permission checks recognize that no one is acting.
func (c *Context) Active() bool { return c != nil }

// Caller returns the effective caller: the object whose authority governs
// permission checks right now.
func (c *Context) Caller() ulid.ULID { return c.effective }

// Player returns the human session's avatar.
func (c *Context) Player() ulid.ULID { return c.player }

// Depth returns the number of frames currently on the stack.
func (c *Context) Depth() int { return len(c.frames) }

// Push appends a frame for a verb activation. The frame's Player is filled
// from the session.
//
// When elevate is false (the ordinary nested call), the effective caller is
// left untouched: a system-owned utility verb invoked inside a user's
// session still performs ownership checks as that user. When elevate is
// true, the current effective caller is recorded in the frame and the
// effective caller becomes the frame's Caller until the frame is popped.
func (c *Context) Push(f Frame, elevate bool) {
	f.Player = c.player
	if elevate {
		prev := c.effective
		f.PreviousCaller = &prev
		c.effective = f.Caller
	} else {
		f.PreviousCaller = nil
		f.Caller = c.effective
	}
	c.frames = append(c.frames, f)
}

// Pop removes the top frame. If the frame carried a PreviousCaller, the
// effective caller is restored to that value; otherwise it is unchanged.
// Popping an empty stack returns ErrEmptyStack.
func (c *Context) Pop() error {
	if len(c.frames) == 0 {
		return oops.In("session").Code("STACK_UNDERFLOW").Wrap(ErrEmptyStack)
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	if top.PreviousCaller != nil {
		c.effective = *top.PreviousCaller
	}
	return nil
}

// Top returns the current frame, or nil when the stack is empty.
func (c *Context) Top() *Frame {
	if len(c.frames) == 0 {
		return nil
	}
	f := c.frames[len(c.frames)-1]
	return &f
}

// Snapshot returns a copy of the frame list, bottom first. Introspection
// only: mutating the result does not affect the stack.
func (c *Context) Snapshot() []Frame {
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// Write sends a line of verb output to the session's recipient.
// Silently discarded when no writer is attached.
func (c *Context) Write(line string) {
	if c == nil || c.writer == nil {
		return
	}
	c.writer(line)
}
