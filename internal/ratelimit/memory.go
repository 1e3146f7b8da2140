package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const pruneThreshold = 10000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory. The bucket
// holds limit tokens and refills limit tokens per window.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	every    rate.Limit
	now      func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	every := rate.Inf
	if limit > 0 {
		every = rate.Every(window / time.Duration(limit))
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		every:    every,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true, Limit: l.limit}, nil
	}

	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= pruneThreshold {
			l.prune(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	d := Decision{Limit: l.limit}
	if v.limiter.AllowN(now, 1) {
		d.Allowed = true
		d.Remaining = max(0, int(v.limiter.TokensAt(now)))
		return d, nil
	}
	d.RetryAfter = l.window / time.Duration(l.limit)
	return d, nil
}

// prune drops visitors idle for a full window; their buckets are full again.
func (l *MemoryLimiter) prune(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.window {
			delete(l.visitors, k)
		}
	}
}
