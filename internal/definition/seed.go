package definition

import (
	"context"
	"errors"
	"fmt"

	"memory_console/internal/models"
	"memory_console/internal/service"
)

// Seeder is the part of the service layer a definition file is applied to.
type Seeder interface {
	SavePoint(ctx context.Context, p models.Point) error
	SaveVariable(ctx context.Context, v models.GlobalVariable) error
	Create(ctx context.Context, m models.IfMemory) (models.IfMemory, error)
	Update(ctx context.Context, id string, m models.IfMemory) (models.IfMemory, error)
}

// SeedResult counts what Seed applied.
type SeedResult struct {
	Points    int
	Variables int
	Created   int
	Updated   int
}

// Seed upserts the catalog first, then the memories. A memory with an id that
// already exists is updated; one without an id is always created. The first
// error stops seeding.
func Seed(ctx context.Context, s Seeder, f File) (SeedResult, error) {
	var res SeedResult
	for _, p := range f.Points {
		if err := s.SavePoint(ctx, p); err != nil {
			return res, fmt.Errorf("point %q: %w", p.ID, err)
		}
		res.Points++
	}
	for _, v := range f.Variables {
		if err := s.SaveVariable(ctx, v); err != nil {
			return res, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		res.Variables++
	}
	for i, m := range f.Memories {
		if m.ID != "" {
			_, err := s.Update(ctx, m.ID, m)
			if err == nil {
				res.Updated++
				continue
			}
			if !errors.Is(err, models.ErrNotFound) {
				return res, fmt.Errorf("memories[%d] %q: %w", i, m.Name, err)
			}
		}
		if _, err := s.Create(ctx, m); err != nil {
			return res, fmt.Errorf("memories[%d] %q: %w", i, m.Name, err)
		}
		res.Created++
	}
	return res, nil
}

// serviceSeeder adapts the composed service to Seeder.
type serviceSeeder struct {
	service.Catalog
	service.Memories
}

// ForService returns a Seeder backed by the catalog and memory services.
func ForService(s *service.Service) Seeder {
	return serviceSeeder{Catalog: s.Catalog, Memories: s.Memories}
}
