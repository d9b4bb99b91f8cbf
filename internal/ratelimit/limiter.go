// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    time.Time
}

// Limiter allows max requests per window for each key, refilling evenly
// across the window.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

func New(max int, window time.Duration) *Limiter {
	if max < 1 {
		max = 1
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
		now:      time.Now,
	}
}

func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.last = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Window is the period a full burst is spread over.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Cleanup drops keys idle for longer than the window. Idle keys have a full
// bucket again, so forgetting them changes nothing.
func (l *Limiter) Cleanup() int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if v.last.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
