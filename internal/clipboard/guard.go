// Copyright (c) 2026 Passkeep Team
// Passkeep - desktop credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package clipboard implements the time-bounded secret exposure policy.
// A copied secret lives on the system clipboard for one exposure window and
// is then actively cleared. This is the only place a secret may legitimately
// exist outside the vault service call stack.
package clipboard

import (
	"sync"
	"time"

	atotto "github.com/atotto/clipboard"
	"github.com/passkeep/passkeep/internal/logging"
)

// DefaultWindow is the exposure window used when none is configured.
// Longer is more convenient, shorter is more secure.
const DefaultWindow = 10 * time.Second

// Guard arms a clear timer whenever a secret is copied. A second copy before
// expiry supersedes the first: the pending clear is ignored and a fresh
// window starts, so exactly one clear fires per exposure.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	epoch  uint64
	timer  *time.Timer

	// writeFunc and clearFunc allow tests to observe the exposure boundary
	// without touching the real system clipboard.
	writeFunc func(string) error
	clearFunc func() error
}

// New returns a Guard with the given exposure window; window <= 0 selects
// DefaultWindow.
func New(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		window:    window,
		writeFunc: atotto.WriteAll,
		clearFunc: func() error { return atotto.WriteAll("") },
	}
}

// NewWithFuncs returns a Guard writing through the provided functions
// instead of the system clipboard. Used by tests.
func NewWithFuncs(window time.Duration, write func(string) error, clear func() error) *Guard {
	g := New(window)
	if write != nil {
		g.writeFunc = write
	}
	if clear != nil {
		g.clearFunc = clear
	}
	return g
}

// Copy places the secret at the exposure boundary and (re)arms the clear
// timer. The secret value is never logged.
func (g *Guard) Copy(secret string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.writeFunc(secret); err != nil {
		return err
	}

	// Supersede any pending clear: bump the epoch so a stale timer that
	// already fired but has not taken the lock yet becomes a no-op.
	g.epoch++
	epoch := g.epoch
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.window, func() { g.expire(epoch) })
	logging.Debugf("clipboard: armed, clearing in %s", g.window)
	return nil
}

// expire clears the exposure boundary if no newer Copy superseded it.
func (g *Guard) expire(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if epoch != g.epoch {
		// A newer Copy re-armed the guard; this expiry is stale.
		return
	}
	if err := g.clearFunc(); err != nil {
		logging.Errorf("clipboard: clear failed: %v", err)
		return
	}
	g.timer = nil
	logging.Debugf("clipboard: cleared after exposure window")
}

// Clear wipes the exposure boundary immediately and cancels any pending
// expiry. Called on logout and application close.
func (g *Guard) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.epoch++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	return g.clearFunc()
}

// Armed reports whether a clear is currently pending.
func (g *Guard) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}
