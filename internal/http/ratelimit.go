package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRateLimitPerMinute = 60
	defaultRateLimitCleanup   = 5 * time.Minute
)

// rateLimiter caps mutating requests per client IP using a fixed
// one-minute window. The limit and sweep interval come from Options.
type rateLimiter struct {
	limit        int
	cleanupEvery time.Duration

	mu      sync.Mutex
	windows map[string]*requestWindow

	done     chan struct{}
	stopOnce sync.Once
}

type requestWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, cleanupEvery time.Duration) *rateLimiter {
	if limit < 1 {
		limit = defaultRateLimitPerMinute
	}
	if cleanupEvery <= 0 {
		cleanupEvery = defaultRateLimitCleanup
	}
	rl := &rateLimiter{
		limit:        limit,
		cleanupEvery: cleanupEvery,
		windows:      make(map[string]*requestWindow),
		done:         make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(rl.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropIdle()
		case <-rl.done:
			return
		}
	}
}

// dropIdle removes windows idle for two sweep intervals, keeping the map
// bounded by recently active clients.
func (rl *rateLimiter) dropIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.cleanupEvery)
	for ip, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

// stop terminates the janitor goroutine.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow reports whether another request from clientIP fits in its current
// window. A window older than a minute is replaced rather than reset, so
// a client that backs off gets a clean slate.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) > time.Minute {
		rl.windows[clientIP] = &requestWindow{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
