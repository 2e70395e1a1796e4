package backoff

import (
	"context"
	"time"
)

// Retry executes f up to attempts times with exponential backoff starting
// at sleep. It returns nil on the first successful attempt, or the last
// error once attempts are exhausted or ctx is cancelled while waiting.
func Retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	if sleep <= 0 {
		sleep = time.Second
	}
	var lastErr error
	for cur := 0; cur < attempts; cur++ {
		err := f()
		if err == nil {
			return nil
		}
		lastErr = err
		if cur != attempts-1 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(sleep):
			}
			sleep *= 2
		}
	}
	return lastErr
}
