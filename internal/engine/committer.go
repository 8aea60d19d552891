package engine

import (
	"context"
	"fmt"
	"time"

	"memory_console/internal/models"
)

// Committer writes a selected value to the output destination.
type Committer struct {
	store   Store
	timeout time.Duration
}

func NewCommitter(store Store, timeout time.Duration) *Committer {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Committer{store: store, timeout: timeout}
}

// OutputScalar converts a branch or default value for the given output type:
// Digital is on for any non-zero value, Analog is written as is.
func OutputScalar(t models.OutputType, value float64) models.Scalar {
	if t == models.OutputDigital {
		return models.Bool(value != 0)
	}
	return models.Number(value)
}

// Commit performs a type-checked write. Failures are returned as *CommitError.
func (c *Committer) Commit(ctx context.Context, dest models.SourceReference, t models.OutputType, value float64) error {
	v := OutputScalar(t, value)
	err := bounded(ctx, c.timeout, func(ctx context.Context) error {
		kind, err := c.store.Describe(ctx, dest)
		if err != nil {
			return err
		}
		if want := models.ScalarKindFor(t); kind != want {
			return fmt.Errorf("%s output needs a %s destination, %s holds %s: %w",
				t, want, dest, kind, models.ErrTypeMismatch)
		}
		return c.store.Set(ctx, dest, v)
	})
	if err != nil {
		return &CommitError{Ref: dest, Value: v, Err: err}
	}
	return nil
}
