package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowRateLimiter counts requests per key (client IP) inside a fixed
// window and resets the window wholesale.
type FixedWindowRateLimiter struct {
	sync.RWMutex
	clients map[string]int
	limit   int
	window  time.Duration
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]int),
		limit:   limit,
		window:  window,
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	for range ticker.C {
		rl.Lock()
		rl.clients = make(map[string]int)
		rl.Unlock()
	}
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.RLock()
	count, exists := rl.clients[key]
	rl.RUnlock()

	if !exists || count < rl.limit {
		rl.Lock()
		rl.clients[key]++
		rl.Unlock()
		return true, 0
	}

	return false, rl.window
}
