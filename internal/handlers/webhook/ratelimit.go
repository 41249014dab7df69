package webhook

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
)

// RateLimiterOptions configures the per-session limiter
type RateLimiterOptions struct {
	// Limit defines requests per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// Expiry is how long an idle session keeps its limiter
	Expiry time.Duration
}

// DefaultRateLimiterOptions returns the webhook defaults
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:  5,
		Burst:  10,
		Expiry: time.Hour,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key. Idle keys are pruned on
// access, at most once per minute.
type RateLimiter struct {
	mu        sync.Mutex
	options   RateLimiterOptions
	clock     clock.Clock
	entries   map[string]*limiterEntry
	lastPrune time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(options RateLimiterOptions, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		options:   options,
		clock:     clk,
		entries:   make(map[string]*limiterEntry),
		lastPrune: clk.Now(),
	}
}

// Allow reports whether key may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.prune(now)

	e, ok := r.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.options.Limit, r.options.Burst)}
		r.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *RateLimiter) prune(now time.Time) {
	if now.Sub(r.lastPrune) < time.Minute {
		return
	}
	r.lastPrune = now
	for k, e := range r.entries {
		if now.Sub(e.lastSeen) > r.options.Expiry {
			delete(r.entries, k)
		}
	}
}
