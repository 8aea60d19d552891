package engine

import (
	"context"
	"errors"

	"memory_console/internal/models"
)

// BindingTable resolves all variable bindings of an instance into one snapshot.
type BindingTable struct {
	resolver *Resolver
}

func NewBindingTable(r *Resolver) *BindingTable {
	return &BindingTable{resolver: r}
}

// Snapshot resolves every binding. The first failure aborts the whole snapshot;
// a partial environment is never returned.
func (t *BindingTable) Snapshot(ctx context.Context, bindings []models.VariableBinding) (models.Snapshot, error) {
	values := make(map[string]models.Scalar, len(bindings))
	for _, b := range bindings {
		v, err := t.resolver.Resolve(ctx, b.Source)
		if err != nil {
			var rerr *ResolutionError
			if errors.As(err, &rerr) {
				rerr.Alias = b.Alias
			}
			return models.Snapshot{}, err
		}
		values[b.Alias] = v
	}
	return models.NewSnapshot(values), nil
}
