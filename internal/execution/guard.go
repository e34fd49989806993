package execution

import (
	"sync"
	"time"

	"github.com/robinmaple/trading-automation-sub002/internal/model"
	"github.com/robinmaple/trading-automation-sub002/pkg/exception"
)

// DefaultCooldown is the minimum gap between execution attempts for
// one identity key, successful or not.
const DefaultCooldown = 5 * time.Second

type guardEntry struct {
	inProgress  bool
	lastAttempt time.Time
}

// Guard is the sole source of duplicate-prevention and cooldown truth.
//
// Acquire performs the check-then-set atomically under one lock: two
// concurrent triggers for the same identity can never both pass. Once
// acquired, an attempt runs to completion; Release stamps the attempt
// time regardless of outcome, which is what enforces the cooldown even
// after failures and prevents retry storms against a rejecting broker.
type Guard struct {
	mu       sync.Mutex
	cooldown time.Duration
	entries  map[model.IdentityKey]*guardEntry
	now      func() time.Time
}

// NewGuard creates a guard with the given cooldown; zero or negative
// falls back to the default.
func NewGuard(cooldown time.Duration) *Guard {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Guard{
		cooldown: cooldown,
		entries:  make(map[model.IdentityKey]*guardEntry),
		now:      time.Now,
	}
}

// WithClock swaps the time source for deterministic tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	if now != nil {
		g.now = now
	}
	return g
}

// Acquire attempts to own the identity key for one execution attempt.
func (g *Guard) Acquire(key model.IdentityKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	if !ok {
		entry = &guardEntry{}
		g.entries[key] = entry
	}
	if entry.inProgress {
		return exception.ErrExecutionInProgress
	}
	if !entry.lastAttempt.IsZero() && g.now().Sub(entry.lastAttempt) < g.cooldown {
		return exception.ErrExecutionCooldown
	}
	entry.inProgress = true
	return nil
}

// Release clears the in-progress flag and stamps the attempt time.
// It must run on every exit path after a successful Acquire.
func (g *Guard) Release(key model.IdentityKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	if !ok {
		return
	}
	entry.inProgress = false
	entry.lastAttempt = g.now()
}

// InProgress reports whether the key currently owns an attempt.
func (g *Guard) InProgress(key model.IdentityKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[key]
	return ok && entry.inProgress
}
