// Package ratelimit provides a sliding-window rate limiter keyed by an
// arbitrary string (here, the user requesting device approval mails). The
// limiter is a dedicated counter rather than a scan over the security log,
// so it stays correct under concurrent requests from the same user.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter answers whether one more event is allowed for the given key within
// the configured window. Allow both checks and records the event.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// memoryLimiter keeps per-key event timestamps in process memory.
type memoryLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events map[string][]time.Time
	now    func() time.Time
}

// NewMemoryLimiter creates an in-process sliding-window limiter allowing
// limit events per window per key.
func NewMemoryLimiter(limit int, window time.Duration) Limiter {
	return &memoryLimiter{
		limit:  limit,
		window: window,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.events[key] = kept
		return false, nil
	}

	l.events[key] = append(kept, now)
	return true, nil
}
