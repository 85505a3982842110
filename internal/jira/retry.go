package jira

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// DispatchError is a failed tracker call. Transient errors (network, 5xx,
// 429) are retried; everything else implies misconfiguration or tracker-side
// rejection and is surfaced immediately.
type DispatchError struct {
	Message    string
	StatusCode int
	Transient  bool
}

func (e *DispatchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("tracker returned %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Transient
	}
	return false
}

// SleepFunc waits for the given duration or until the context is done.
// Injectable so tests can simulate backoff without real waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const baseDelay = 500 * time.Millisecond

// backoff returns the delay before the next attempt: exponential in the
// attempt number with up to 50% added jitter to avoid thundering retries.
func backoff(attempt int) time.Duration {
	delay := baseDelay << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay + jitter
}
