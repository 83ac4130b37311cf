package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter is the interface for rate limiting a single caller.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}

// Keyed holds one RateLimiter per key, so that one tenant exhausting its budget never
// throttles another. Limiters idle for longer than idleTTL are dropped.
type Keyed struct {
	newLimiter func() RateLimiter
	idleTTL    time.Duration
	now        func() time.Time

	mutex     sync.Mutex
	limiters  map[string]*keyedEntry
	lastSweep time.Time
}

type keyedEntry struct {
	limiter  RateLimiter
	lastSeen time.Time
}

// NewKeyed creates a keyed limiter. factory builds the limiter for a key on first use.
func NewKeyed(factory func() RateLimiter, idleTTL time.Duration) *Keyed {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Keyed{
		newLimiter: factory,
		idleTTL:    idleTTL,
		now:        time.Now,
		limiters:   make(map[string]*keyedEntry),
	}
}

// Allow reports whether a request for key is allowed.
func (k *Keyed) Allow(key string) bool {
	k.mutex.Lock()
	now := k.now()
	if now.Sub(k.lastSweep) >= k.idleTTL {
		for key, e := range k.limiters {
			if now.Sub(e.lastSeen) >= k.idleTTL {
				delete(k.limiters, key)
			}
		}
		k.lastSweep = now
	}
	e, ok := k.limiters[key]
	if !ok {
		e = &keyedEntry{limiter: k.newLimiter()}
		k.limiters[key] = e
	}
	e.lastSeen = now
	limiter := e.limiter
	k.mutex.Unlock()

	return limiter.Allow()
}

// Len returns the number of live keys.
func (k *Keyed) Len() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return len(k.limiters)
}
