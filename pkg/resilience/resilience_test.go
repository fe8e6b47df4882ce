package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("status 502")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyReturnsLastErrorWhenSpent(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond)
	calls := 0
	last := errors.New("still down")
	err := p.Do(context.Background(), func() error {
		calls++
		return last
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected first attempt plus 2 retries, got %d", calls)
	}
}

func TestRetryPolicyStopsWhenContextEnds(t *testing.T) {
	p := NewRetryPolicy(5, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := p.Do(ctx, func() error {
		calls++
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("cancelled pause must not re-attempt, got %d calls", calls)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("cancellation should interrupt the pause, waited %v", elapsed)
	}
}

func TestBreakerOpensAfterConsecutiveRateLimits(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute)
	if !b.Allow() {
		t.Fatalf("new breaker must start closed")
	}
	b.OnError(RateLimitError{Provider: "gemini"})
	if !b.Allow() {
		t.Fatalf("one rate limit below threshold must not trip")
	}
	b.OnError(RateLimitError{Provider: "gemini"})
	if b.Allow() {
		t.Fatalf("breaker must open at the threshold")
	}
}

func TestBreakerIgnoresOtherErrors(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute)
	b.OnError(errors.New("connection reset"))
	b.OnError(context.DeadlineExceeded)
	if !b.Allow() {
		t.Fatalf("non rate limit errors must not trip the breaker")
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute)
	b.OnError(RateLimitError{})
	b.OnSuccess()
	b.OnError(RateLimitError{})
	if !b.Allow() {
		t.Fatalf("success must reset the consecutive count")
	}
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	b := NewCircuitBreaker(1, 30*time.Second)
	now := time.Now()
	b.now = func() time.Time { return now }

	b.OnError(RateLimitError{})
	if b.Allow() {
		t.Fatalf("breaker should be open")
	}
	now = now.Add(31 * time.Second)
	if !b.Allow() {
		t.Fatalf("breaker should let calls through after the cooldown")
	}
}

func TestIsRateLimitUnwraps(t *testing.T) {
	wrapped := errors.Join(errors.New("attempt failed"), RateLimitError{Message: "quota exceeded"})
	if !IsRateLimit(wrapped) {
		t.Fatalf("expected wrapped rate limit to be detected")
	}
	if IsRateLimit(errors.New("quota exceeded")) {
		t.Fatalf("plain errors must not read as rate limits")
	}
}
