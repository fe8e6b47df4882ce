package resilience

import (
	"context"
	"time"
)

// RetryPolicy re-runs short idempotent I/O with a fixed pause between
// attempts. It is sized for the Twilio media fetch that precedes
// voice-note transcription: the download is sub-second and the webhook
// must still answer inside Twilio's reply window, so attempts stay few
// and the pause stays flat rather than exponential.
type RetryPolicy struct {
	// Retries is the number of re-attempts after the first call.
	Retries int
	// Pause is the fixed wait before each re-attempt.
	Pause time.Duration
}

// NewRetryPolicy builds a policy, substituting the media-download
// defaults (2 retries, 300ms pause) for non-positive values.
func NewRetryPolicy(retries int, pause time.Duration) RetryPolicy {
	if retries <= 0 {
		retries = 2
	}
	if pause <= 0 {
		pause = 300 * time.Millisecond
	}
	return RetryPolicy{Retries: retries, Pause: pause}
}

// Do runs fn until it succeeds, the retries are spent, or ctx ends
// while waiting between attempts.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= p.Retries {
			return err
		}
		timer := time.NewTimer(p.Pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
