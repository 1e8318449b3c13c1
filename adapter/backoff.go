package adapter

import (
	"context"
	"time"
)

// BaseBackoff is the delay before the first retry. Each further retry
// doubles it.
const BaseBackoff = 500 * time.Millisecond

// Backoff returns the delay before retry attempt i (1-based).
func Backoff(i int) time.Duration {
	if i < 1 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * BaseBackoff
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
