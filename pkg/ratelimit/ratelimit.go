package ratelimit

import (
	"sync"
	"time"
)

// WindowLimiter is an in-process fixed-window rate limiter keyed by an
// arbitrary string (connection id, user id, IP). Counters reset when their
// window expires and are dropped explicitly on Remove.
type WindowLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

// NewWindowLimiter creates a limiter allowing limit requests per window.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

// Allow checks whether a request from key is within budget and counts it.
func (l *WindowLimiter) Allow(key string) bool {
	return l.AllowAt(key, time.Now())
}

// AllowAt is Allow with an injected clock, used directly by tests.
func (l *WindowLimiter) AllowAt(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.counters[key]
	if !exists || now.After(c.resetAt) {
		l.counters[key] = &windowCounter{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if c.count >= l.limit {
		return false
	}

	c.count++
	return true
}

// Remaining reports how many requests key has left in the current window.
func (l *WindowLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.counters[key]
	if !exists || time.Now().After(c.resetAt) {
		return l.limit
	}
	if c.count >= l.limit {
		return 0
	}
	return l.limit - c.count
}

// Remove drops the counter for key. Called when a connection goes away so
// the map does not grow without bound.
func (l *WindowLimiter) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, key)
}

// Len returns the number of live counters.
func (l *WindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
