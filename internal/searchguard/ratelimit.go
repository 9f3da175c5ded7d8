package searchguard

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate-limits per API key, one golang.org/x/time/rate.Limiter per
// key sized from that key's own per-minute allowance. This replaces the
// teacher's hand-rolled token bucket with the standard ecosystem limiter,
// keeping the per-key keying and periodic stale-entry cleanup.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*keyLimiter
	window  time.Duration
}

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLimiter creates a Limiter whose keys refill over window.
func NewLimiter(window time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*keyLimiter),
		window:  window,
	}
	go l.cleanup()
	return l
}

// Allow reports whether key has remaining capacity under its per-window
// limit, consuming one token on success. A key's rate.Limiter is created
// lazily on first use and cached for subsequent calls.
func (l *Limiter) Allow(key string, limit int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.entries[key]
	if !ok {
		ratePerSec := rate.Limit(float64(limit) / l.window.Seconds())
		e = &keyLimiter{limiter: rate.NewLimiter(ratePerSec, limit)}
		l.entries[key] = e
	}
	e.lastAccess = now
	return e.limiter.Allow()
}

// Reset clears the rate-limit state for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// cleanup periodically removes limiters for keys that have gone idle, to
// prevent unbounded growth from one-off or revoked keys.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.window)
		for key, e := range l.entries {
			if e.lastAccess.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
