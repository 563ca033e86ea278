package http

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter: at most limit requests per
// minute. A zero or negative limit disables it.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	counter  int
	reset    *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{}
	}
	r := &rateLimiter{
		limit: limit,
		reset: time.NewTicker(time.Minute),
		done:  make(chan struct{}),
	}
	go r.resetLoop()
	return r
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return r.counter <= r.limit
}

// stop ends the reset goroutine. Safe to call more than once.
func (r *rateLimiter) stop() {
	if r.reset == nil {
		return
	}
	r.stopOnce.Do(func() {
		r.reset.Stop()
		close(r.done)
	})
}

func (r *rateLimiter) resetLoop() {
	for {
		select {
		case <-r.reset.C:
			r.mu.Lock()
			r.counter = 0
			r.mu.Unlock()
		case <-r.done:
			return
		}
	}
}
