// Package ratelimit throttles clients with a fixed one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time

	requestsPerMinute int
	cleanupInterval   time.Duration
	hits              int64

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a background cleanup loop; call Stop to end it.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	rl := &Limiter{
		clients:           make(map[string]*clientInfo),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
		stopCleanup:       make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// Allow counts a request for key and reports whether it fits the window.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok || now.Sub(client.windowStart) >= window {
		rl.clients[key] = &clientInfo{windowStart: now, requests: 1}
		return true
	}
	client.requests++
	if client.requests > rl.requestsPerMinute {
		atomic.AddInt64(&rl.hits, 1)
		return false
	}
	return true
}

// RetryAfter returns the seconds until key's window resets.
func (rl *Limiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	client, ok := rl.clients[key]
	if !ok {
		return 0
	}
	remaining := window - rl.now().Sub(client.windowStart)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries drops clients whose window ended over ten minutes ago.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-10 * time.Minute)
	for key, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   atomic.LoadInt64(&rl.hits),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware limits requests whose method is in methods; an empty list
// limits every method. onLimit, when nil, writes a plain 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request), methods ...string) func(http.Handler) http.Handler {
	limited := make(map[string]bool, len(methods))
	for _, m := range methods {
		limited[m] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(limited) > 0 && !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			key := extractIP(r)
			if !rl.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(max(rl.RetryAfter(key), 1)))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
