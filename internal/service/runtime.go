package service

import (
	"context"
	"fmt"
	"memory_console/internal/logger"
	"memory_console/internal/repository"
)

// RuntimeService brings the engine up from persisted state and takes it down
// on shutdown.
type RuntimeService struct {
	catalog    Catalog
	memoryRepo repository.MemoryRepo
	engine     Engine
	log        *logger.Logger
}

func NewRuntimeService(catalog Catalog, memoryRepo repository.MemoryRepo, engine Engine, log *logger.Logger) *RuntimeService {
	return &RuntimeService{catalog: catalog, memoryRepo: memoryRepo, engine: engine, log: log}
}

// Run declares the catalog, starts every stored definition and blocks until
// ctx is cancelled. The engine is stopped before Run returns.
func (s *RuntimeService) Run(ctx context.Context) error {
	defer s.engine.Stop()

	if err := s.catalog.Load(ctx); err != nil {
		return err
	}
	defs, err := s.memoryRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load if-memories: %w", err)
	}

	enabled := 0
	for _, m := range defs {
		if err := m.Validate(); err != nil {
			s.log.Warnw("memory_skipped", "memory_id", m.ID, "err", err)
			continue
		}
		s.engine.Apply(m)
		if !m.Disabled {
			enabled++
		}
	}
	s.log.Infow("runtime_started", "memories", len(defs), "enabled", enabled)

	<-ctx.Done()
	s.log.Infow("runtime_stopping")
	return nil
}
