package sideeffect

import (
	"testing"
	"time"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first failure", attempt: 1, want: 30 * time.Second},
		{name: "second failure", attempt: 2, want: time.Minute},
		{name: "third failure", attempt: 3, want: 2 * time.Minute},
		{name: "fourth failure", attempt: 4, want: 4 * time.Minute},
		{name: "fifth failure", attempt: 5, want: 8 * time.Minute},
		{name: "capped at max backoff", attempt: 8, want: 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.NextDelay(tt.attempt); got != tt.want {
				t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}

	tests := []struct {
		attempts int
		want     bool
	}{
		{attempts: 0, want: false},
		{attempts: 2, want: false},
		{attempts: 3, want: true},
		{attempts: 4, want: true},
	}

	for _, tt := range tests {
		if got := policy.Exhausted(tt.attempts); got != tt.want {
			t.Errorf("Exhausted(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}
