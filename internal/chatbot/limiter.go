package chatbot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultStaleAfter is how long an idle user's bucket is kept.
	DefaultStaleAfter = 10 * time.Minute
	// DefaultCleanEvery is the sweep interval used by Run.
	DefaultCleanEvery = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per user.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

// NewLimiter allows perMinute requests per user with the given burst.
// perMinute <= 0 disables limiting.
func NewLimiter(perMinute, burst int) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{limit: limit, burst: burst, visitors: make(map[string]*visitor), now: time.Now}
}

// Allow reports whether userID may send another message now.
func (l *Limiter) Allow(userID string) bool {
	l.mu.Lock()
	now := l.now()
	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than staleAfter and returns how many
// were removed.
func (l *Limiter) Sweep(staleAfter time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > staleAfter {
			delete(l.visitors, id)
			removed++
		}
	}
	return removed
}

// Run sweeps stale buckets every cleanEvery until ctx is done.
func (l *Limiter) Run(ctx context.Context, cleanEvery, staleAfter time.Duration) {
	ticker := time.NewTicker(cleanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep(staleAfter)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
