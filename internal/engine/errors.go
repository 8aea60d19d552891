package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memory_console/internal/models"
)

// ErrTimeout is reported when the store does not answer within the configured bound.
var ErrTimeout = errors.New("store operation timed out")

// ResolutionError aborts one cycle of one instance. The instance keeps its last output.
type ResolutionError struct {
	Alias string
	Ref   models.SourceReference
	Err   error
}

func (e *ResolutionError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("resolve [%s] (%s): %v", e.Alias, e.Ref, e.Err)
	}
	return fmt.Sprintf("resolve %s: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// CommitError means a value was computed but not delivered to its destination.
type CommitError struct {
	Ref   models.SourceReference
	Value models.Scalar
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s to %s: %v", e.Value, e.Ref, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// bounded runs fn with a deadline and returns ErrTimeout if fn has not
// returned by then, even when fn ignores its context.
func bounded(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, d)
		}
		return ctx.Err()
	}
}
