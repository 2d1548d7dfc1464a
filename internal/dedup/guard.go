package dedup

import (
	"time"

	"finflow/internal/cache"
)

const (
	// DefaultWindow is how long an identical confirmation is treated as a double tap.
	DefaultWindow = 60 * time.Second

	defaultMaxEntries = 1024
)

// Guard remembers recently confirmed hashes.
//
// It is advisory UX protection against double submission, scoped to the
// process lifetime. It is not a source of truth for the ledger.
type Guard struct {
	window time.Duration
	seen   *cache.LRUCache[time.Time]
}

// NewGuard creates a guard. Non-positive arguments select the defaults.
func NewGuard(window time.Duration, maxEntries int) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Guard{
		window: window,
		seen:   cache.NewLRUCache[time.Time](maxEntries, window),
	}
}

// Check reports whether hash was recorded within the window before now.
// A non-duplicate is recorded with now; duplicates keep the original stamp.
func (g *Guard) Check(hash string, now time.Time) (duplicate bool) {
	if seen, ok := g.seen.GetAt(hash, now); ok && now.Sub(seen) <= g.window {
		return true
	}
	g.seen.SetAt(hash, now, now)
	return false
}

// Forget drops a hash, used when persistence fails after a successful Check
// so the user can retry immediately.
func (g *Guard) Forget(hash string) {
	g.seen.Delete(hash)
}

// Window returns the suppression window.
func (g *Guard) Window() time.Duration {
	return g.window
}

// CleanExpired implements cache.Cleaner.
func (g *Guard) CleanExpired() int {
	return g.seen.CleanExpired()
}

// Size returns the number of remembered hashes.
func (g *Guard) Size() int {
	return g.seen.Size()
}

var _ cache.Cleaner = (*Guard)(nil)
