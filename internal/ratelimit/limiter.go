// Package ratelimit bounds per-identifier request rates with a trailing
// sliding window. The window algorithm lives here; timestamp storage is
// behind the Store port so deployments can swap the in-process table for
// an external store without touching the algorithm.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults applied by call sites that don't carry their own limits.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = time.Minute
)

// Store holds ordered arrival timestamps per identifier. Implementations
// must keep timestamps ordered oldest-first. The Limiter serializes
// check-and-append per key, so stores only need their own internal
// consistency.
type Store interface {
	// Trim drops all timestamps for key strictly older than cutoff.
	Trim(ctx context.Context, key string, cutoff time.Time) error
	// Timestamps returns the remaining timestamps for key, oldest first.
	// An unknown key yields an empty slice, not an error.
	Timestamps(ctx context.Context, key string) ([]time.Time, error)
	// Append records an arrival at t. Window is a retention hint for
	// stores that expire keys themselves.
	Append(ctx context.Context, key string, t time.Time, window time.Duration) error
}

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds returns the retry hint rounded up to whole seconds,
// suitable for a Retry-After header.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter implements the sliding-window check against a Store.
type Limiter struct {
	store Store
	now   func() time.Time

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// New creates a Limiter backed by store.
func New(store Store) *Limiter {
	return &Limiter{
		store: store,
		now:   time.Now,
		keys:  make(map[string]*sync.Mutex),
	}
}

// Check applies the sliding window for key: timestamps older than
// now-window are dropped, the request is denied if max arrivals remain,
// otherwise the arrival is recorded and admitted. An unknown key is an
// empty window, so a first request is always allowed (unless max is 0,
// which always denies).
func (l *Limiter) Check(ctx context.Context, key string, max int, window time.Duration) (Decision, error) {
	now := l.now()

	if max <= 0 {
		return Decision{Allowed: false, RetryAfter: window}, nil
	}

	// Two concurrent checks for the same key must not both observe a
	// stale count and both be admitted.
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	cutoff := now.Add(-window)
	if err := l.store.Trim(ctx, key, cutoff); err != nil {
		return Decision{}, err
	}

	stamps, err := l.store.Timestamps(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	if len(stamps) >= max {
		retry := stamps[0].Add(window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	if err := l.store.Append(ctx, key, now, window); err != nil {
		return Decision{}, err
	}

	return Decision{Allowed: true, Remaining: max - len(stamps) - 1}, nil
}

func (l *Limiter) keyLock(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	return m
}
