// Package clock holds the time helpers of retry loops.
package clock

import (
	"context"
	"time"
)

// SleepWithContext waits for the duration or returns early if the context is canceled.
// A non-positive duration only checks the context.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LinearBackoff returns the wait before retry number attempt, counting from 1.
func LinearBackoff(step time.Duration, attempt int) time.Duration {
	if attempt < 1 || step <= 0 {
		return 0
	}
	return time.Duration(attempt) * step
}
