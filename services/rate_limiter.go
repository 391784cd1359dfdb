package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiter allows at most limit calls per sliding window
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	requests []time.Time
}

// NewRateLimiter creates a limiter of rpm requests per minute. rpm <= 0
// disables limiting.
func NewRateLimiter(rpm int) *RateLimiter {
	return newWindowLimiter(rpm, time.Minute)
}

func newWindowLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a request can be made within rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limit <= 0 {
		return ctx.Err()
	}

	for {
		wait := r.reserve()
		if wait <= 0 {
			return nil
		}

		slog.Info("Rate limit reached, waiting...",
			"waitSeconds", wait.Seconds(),
			"limit", r.limit,
		)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// reserve records a request when the window has room, otherwise it
// returns how long until the oldest request leaves the window
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	windowStart := now.Add(-r.window)

	valid := r.requests[:0]
	for _, t := range r.requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	r.requests = valid

	if len(r.requests) < r.limit {
		r.requests = append(r.requests, now)
		return 0
	}

	return r.requests[0].Add(r.window).Sub(now)
}

// InFlight returns the number of requests inside the current window
func (r *RateLimiter) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	windowStart := r.now().Add(-r.window)
	n := 0
	for _, t := range r.requests {
		if t.After(windowStart) {
			n++
		}
	}
	return n
}
