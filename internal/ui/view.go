package ui

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned for a load whose view was left or reloaded before the
// response arrived. Its result must be dropped.
var ErrStale = errors.New("stale response")

// View tracks the lifetime of one screen. Every load started with Begin
// belongs to a generation; starting another load or leaving the view
// cancels the previous one and makes its result stale.
type View struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a load and returns its context and generation.
func (v *View) Begin(ctx context.Context) (context.Context, uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	ctx, v.cancel = context.WithCancel(ctx)
	return ctx, v.gen
}

// Current reports whether gen is still the live load.
func (v *View) Current(gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen == gen
}

// Finish releases the context of gen if it is still the live load.
func (v *View) Finish(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen == gen && v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Leave cancels any in-flight load.
func (v *View) Leave() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
}
