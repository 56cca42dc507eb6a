// Package invocation scopes state to a single external call into a login
// pipeline.
//
// An Invocation is created by Begin at the start of each call and travels on
// the call's context.Context. Everything derived from that context (nested
// function calls, goroutines finishing the same call) sees the same
// Invocation. A new call started from inside a running one must call Begin
// again and gets its own Invocation; nothing is inherited.
//
// Values stored on an Invocation are collected with it. There is no global
// registry to clean up.
package invocation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

var invocationCtxKey = &contextKey{"invocation"}

type contextKey struct {
	name string
}

// Invocation is the scope of one login call.
type Invocation struct {
	id        uuid.UUID
	startedAt time.Time

	mu     sync.Mutex
	values map[any]any
}

// Begin returns a child of ctx carrying a new Invocation. Any Invocation
// already present on ctx is shadowed, never reused.
func Begin(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, invocationCtxKey, newInvocation())
}

// From returns the Invocation carried by ctx.
func From(ctx context.Context) (*Invocation, bool) {
	if ctx == nil {
		return nil, false
	}
	inv, ok := ctx.Value(invocationCtxKey).(*Invocation)
	return inv, ok && inv != nil
}

// MustFrom is like From but panics when ctx carries no Invocation.
func MustFrom(ctx context.Context) *Invocation {
	inv, ok := From(ctx)
	if !ok {
		panic("invocation: context has no invocation, call Begin first")
	}
	return inv
}

func newInvocation() *Invocation {
	return &Invocation{
		id:        uuid.New(),
		startedAt: time.Now(),
	}
}

// ID uniquely identifies the invocation.
func (i *Invocation) ID() uuid.UUID {
	return i.id
}

// StartedAt is the time Begin created the invocation.
func (i *Invocation) StartedAt() time.Time {
	return i.startedAt
}

// Value returns the value stored under key, if any.
func (i *Invocation) Value(key any) (any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	val, ok := i.values[key]
	return val, ok
}

// SetOnce stores value under key unless the key already holds a value.
// It reports whether the value was stored.
func (i *Invocation) SetOnce(key, value any) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.values[key]; exists {
		return false
	}
	if i.values == nil {
		i.values = make(map[any]any)
	}
	i.values[key] = value
	return true
}
