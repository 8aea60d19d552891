package engine

import (
	"context"
	"time"

	"memory_console/internal/models"
)

// Store is the live point/variable store the engine reads from and writes to.
type Store interface {
	Get(ctx context.Context, ref models.SourceReference) (models.Scalar, error)
	Set(ctx context.Context, ref models.SourceReference, v models.Scalar) error
	Describe(ctx context.Context, ref models.SourceReference) (models.ScalarKind, error)
}

const defaultStoreTimeout = 500 * time.Millisecond

// Resolver turns a SourceReference into its current value.
type Resolver struct {
	store   Store
	timeout time.Duration
}

func NewResolver(store Store, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Resolver{store: store, timeout: timeout}
}

// Resolve fails with models.ErrNotFound, models.ErrStaleOrUnavailable or ErrTimeout,
// always wrapped in a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, ref models.SourceReference) (models.Scalar, error) {
	var v models.Scalar
	err := bounded(ctx, r.timeout, func(ctx context.Context) error {
		got, err := r.store.Get(ctx, ref)
		if err != nil {
			return err
		}
		v = got
		return nil
	})
	if err != nil {
		return models.Scalar{}, &ResolutionError{Ref: ref, Err: err}
	}
	return v, nil
}
