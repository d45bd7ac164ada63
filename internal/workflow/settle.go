package workflow

import (
	"context"
	"time"
)

// Settle waits d before a mutation's result is re-read, since the upstream
// does not expose its writes to reads immediately. It returns early with
// ctx.Err() when ctx is cancelled.
func Settle(ctx context.Context, d time.Duration) error {
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
