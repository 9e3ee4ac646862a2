package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the wrapped call outlives its window.
var ErrTimeout = errors.New("operation timed out")

// WithTimeout runs fn with a deadline. A call that ignores its context
// keeps running in its goroutine, but the caller gets ErrTimeout as
// soon as the window closes.
func WithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return timeoutCtx.Err()
	}
}
