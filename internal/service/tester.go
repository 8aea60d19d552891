package service

import (
	"context"
	"fmt"
	"memory_console"
	"memory_console/internal/models"
	"memory_console/internal/repository"
	"strings"
)

var errEmptyCondition = inputError("condition is required")

type TesterService struct {
	memoryRepo repository.MemoryRepo
	engine     Engine
}

func NewTesterService(memoryRepo repository.MemoryRepo, engine Engine) *TesterService {
	return &TesterService{memoryRepo: memoryRepo, engine: engine}
}

// TestCondition evaluates one condition against live values. Only malformed
// requests return an error; resolve and evaluate failures are part of the result.
func (s *TesterService) TestCondition(ctx context.Context, p TestParams) (memory_console.TestConditionResult, error) {
	if strings.TrimSpace(p.Condition) == "" {
		return memory_console.TestConditionResult{}, errEmptyCondition
	}
	seen := make(map[string]bool, len(p.Bindings))
	for i, b := range p.Bindings {
		if !models.ValidAlias(b.Alias) {
			return memory_console.TestConditionResult{}, fmt.Errorf("bindings[%d]: invalid alias %q: %w", i, b.Alias, ErrInvalidInput)
		}
		if seen[b.Alias] {
			return memory_console.TestConditionResult{}, fmt.Errorf("bindings[%d]: duplicate alias %q: %w", i, b.Alias, ErrInvalidInput)
		}
		seen[b.Alias] = true
		if err := b.Source.Validate(); err != nil {
			return memory_console.TestConditionResult{}, fmt.Errorf("bindings[%d]: %v: %w", i, err, ErrInvalidInput)
		}
	}
	return s.engine.TestCondition(ctx, p.Condition, p.Bindings), nil
}

// Preview evaluates an unsaved definition once without committing.
func (s *TesterService) Preview(ctx context.Context, m models.IfMemory) (memory_console.PreviewResult, error) {
	if err := m.Validate(); err != nil {
		return memory_console.PreviewResult{}, err
	}
	return s.engine.Preview(ctx, m)
}

// PreviewStored previews a saved definition, enabled or not.
func (s *TesterService) PreviewStored(ctx context.Context, id string) (memory_console.PreviewResult, error) {
	m, err := s.memoryRepo.Get(ctx, id)
	if err != nil {
		return memory_console.PreviewResult{}, err
	}
	return s.engine.Preview(ctx, m)
}
