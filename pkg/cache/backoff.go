package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when a network backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// backoff retries a connection check with doubling delays.
type backoff struct {
	attempts int
	delay    time.Duration
}

// connectBackoff is used when opening network backends.
var connectBackoff = backoff{attempts: 3, delay: time.Second}

// ping calls fn until it succeeds or the attempts run out. A cancelled
// context ends the wait with the context's error.
func (b backoff) ping(ctx context.Context, backend string, fn func(context.Context) error) error {
	delay := b.delay
	var err error
	for i := range b.attempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i == b.attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, backend, err)
}
