package retry

import (
	"context"
	"time"
)

// Policy bounds how long a read waits for a recent write to become visible.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy matches the store's usual replication lag.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// ReadAfterWrite calls read until it returns a non-nil value, an error, or
// the attempts run out. A nil result after the last attempt is returned as
// (nil, nil): "not found" stays a value, not an error.
func ReadAfterWrite[T any](ctx context.Context, p Policy, read func(ctx context.Context) (*T, error)) (*T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; ; i++ {
		v, err := read(ctx)
		if err != nil || v != nil || i >= attempts {
			return v, err
		}

		t := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
