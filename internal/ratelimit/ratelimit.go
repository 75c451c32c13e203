// Package ratelimit provides admission control for run and submit requests,
// keyed by connection.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	// Allow reports whether one more request for key is admitted. When the
	// limiter's backend fails it admits the request and returns the error.
	Allow(ctx context.Context, key string) (bool, error)
	Forget(key string)
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Local is an in-process token bucket per key.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

// NewLocal admits perMinute requests per key on average with bursts of up to
// burst. Buckets unused for ten minutes are dropped.
func NewLocal(perMinute, burst int) *Local {
	return &Local{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   max(burst, 1),
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.sweep(now)
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1), nil
}

func (l *Local) Forget(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Local) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}
