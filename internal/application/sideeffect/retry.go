package sideeffect

import "time"

// RetryPolicy controls how failed side effects are rescheduled. Backoff is
// exponential from InitialBackoff, capped at MaxBackoff; once Attempts reaches
// MaxAttempts the record is marked FAILED and left for manual inspection.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// DefaultRetryPolicy returns the policy used when config does not override it
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       5,
		InitialBackoff:    30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Minute,
	}
}

// NextDelay returns the backoff before the given attempt number (1-based).
// Attempt 1 failing waits InitialBackoff; each later attempt doubles it up to
// the cap.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
		if delay >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Exhausted reports whether the attempt count has used up the policy's budget
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
