package ratelimit

import (
	"testing"
	"time"
)

func TestWindowLimiter_Allow(t *testing.T) {
	limiter := NewWindowLimiter(5, 10*time.Second)
	now := time.Now()

	// First 5 requests in the window pass.
	for i := 0; i < 5; i++ {
		if !limiter.AllowAt("conn1", now) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request in the same window is denied.
	if limiter.AllowAt("conn1", now.Add(time.Second)) {
		t.Error("6th request should be denied")
	}

	// A fresh window resets the budget.
	if !limiter.AllowAt("conn1", now.Add(11*time.Second)) {
		t.Error("Request in the next window should be allowed")
	}
}

func TestWindowLimiter_KeysIndependent(t *testing.T) {
	limiter := NewWindowLimiter(2, 10*time.Second)
	now := time.Now()

	limiter.AllowAt("conn1", now)
	limiter.AllowAt("conn1", now)
	if limiter.AllowAt("conn1", now) {
		t.Error("conn1 should be exhausted")
	}

	// conn2 has its own budget.
	if !limiter.AllowAt("conn2", now) {
		t.Error("conn2 should be allowed")
	}
}

func TestWindowLimiter_Remaining(t *testing.T) {
	limiter := NewWindowLimiter(3, 10*time.Second)

	if got := limiter.Remaining("conn1"); got != 3 {
		t.Errorf("Remaining() = %d, want 3 before any request", got)
	}

	limiter.Allow("conn1")
	if got := limiter.Remaining("conn1"); got != 2 {
		t.Errorf("Remaining() = %d, want 2 after one request", got)
	}
}

func TestWindowLimiter_Remove(t *testing.T) {
	limiter := NewWindowLimiter(1, 10*time.Second)
	now := time.Now()

	limiter.AllowAt("conn1", now)
	if limiter.AllowAt("conn1", now) {
		t.Error("conn1 should be exhausted")
	}

	limiter.Remove("conn1")
	if limiter.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Remove", limiter.Len())
	}

	// A removed key starts over.
	if !limiter.AllowAt("conn1", now) {
		t.Error("conn1 should be allowed after Remove")
	}
}
