package resilience

import (
	"errors"
	"sync"
	"time"
)

// RateLimitError marks a provider 429, primarily Gemini's
// generateContent quota responses.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limit"
}

// IsRateLimit reports whether err wraps a RateLimitError.
func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

// CircuitBreaker sheds generation calls after consecutive rate limit
// failures, so an exhausted Gemini quota is answered from the localized
// fallback instead of burning a full retry cycle per webhook. Only rate
// limits count toward the trip threshold; other transient errors are
// already absorbed by the per-call retry. Any success closes it again.
type CircuitBreaker struct {
	mu          sync.Mutex
	consecutive int
	threshold   int
	openUntil   time.Time
	cooldown    time.Duration
	now         func() time.Time
}

// NewCircuitBreaker trips after threshold consecutive rate limits and
// stays open for cooldown. Non-positive values fall back to 3 trips and
// the 30s cooldown the gateway config defaults to.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a call may proceed. The breaker half-opens by
// simply letting calls through once the cooldown has elapsed.
func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.now().Before(c.openUntil)
}

func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	c.consecutive = 0
	c.openUntil = time.Time{}
	c.mu.Unlock()
}

func (c *CircuitBreaker) OnError(err error) {
	if !IsRateLimit(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive++
	if c.consecutive >= c.threshold {
		c.openUntil = c.now().Add(c.cooldown)
	}
}
