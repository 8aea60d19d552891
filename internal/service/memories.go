package service

import (
	"context"
	"errors"
	"fmt"
	"memory_console/internal/expr"
	"memory_console/internal/logger"
	"memory_console/internal/models"
	"memory_console/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MemoryService struct {
	memoryRepo repository.MemoryRepo
	eventRepo  repository.EventRepo
	engine     Engine
	store      LiveStore
	checker    ConditionChecker
	log        *logger.Logger
	now        func() time.Time
}

func NewMemoryService(memoryRepo repository.MemoryRepo, eventRepo repository.EventRepo,
	engine Engine, store LiveStore, checker ConditionChecker, log *logger.Logger) *MemoryService {
	return &MemoryService{
		memoryRepo: memoryRepo,
		eventRepo:  eventRepo,
		engine:     engine,
		store:      store,
		checker:    checker,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new definition and starts it unless disabled.
func (s *MemoryService) Create(ctx context.Context, m models.IfMemory) (models.IfMemory, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	} else if _, err := s.memoryRepo.Get(ctx, m.ID); err == nil {
		return models.IfMemory{}, fmt.Errorf("if-memory %q: %w", m.ID, models.ErrAlreadyExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.IfMemory{}, err
	}
	normalize(&m)

	if rep := s.Check(ctx, m); !rep.Valid {
		return models.IfMemory{}, rep.Errors
	}
	m.UpdatedAt = s.now()
	if err := s.memoryRepo.Save(ctx, m); err != nil {
		return models.IfMemory{}, err
	}
	s.engine.Apply(m)
	s.record(ctx, m.ID, models.EventCreated, "IF-memory created: "+m.Name, nil)
	s.log.Infow("memory_created", "memory_id", m.ID, "branches", len(m.Branches), "disabled", m.Disabled)
	return m, nil
}

// Update replaces a definition. The running instance picks it up before its
// next cycle; evaluation state is kept only if branches and bindings are unchanged.
func (s *MemoryService) Update(ctx context.Context, id string, m models.IfMemory) (models.IfMemory, error) {
	prev, err := s.memoryRepo.Get(ctx, id)
	if err != nil {
		return models.IfMemory{}, err
	}
	m.ID = id
	for i := range m.Branches {
		if m.Branches[i].ID == "" && i < len(prev.Branches) && prev.Branches[i].Condition == m.Branches[i].Condition {
			m.Branches[i].ID = prev.Branches[i].ID
		}
	}
	normalize(&m)

	if rep := s.Check(ctx, m); !rep.Valid {
		return models.IfMemory{}, rep.Errors
	}
	m.UpdatedAt = s.now()
	if err := s.memoryRepo.Save(ctx, m); err != nil {
		return models.IfMemory{}, err
	}
	s.engine.Apply(m)

	meta := map[string]any{"structural": !models.StructurallyEqual(prev, m)}
	s.record(ctx, id, models.EventUpdated, "IF-memory updated: "+m.Name, meta)
	if prev.Disabled != m.Disabled {
		s.recordEnabled(ctx, m)
	}
	return m, nil
}

func (s *MemoryService) Get(ctx context.Context, id string) (models.IfMemory, error) {
	return s.memoryRepo.Get(ctx, id)
}

func (s *MemoryService) List(ctx context.Context) ([]models.IfMemory, error) {
	return s.memoryRepo.List(ctx)
}

// Delete removes the definition and stops its instance.
func (s *MemoryService) Delete(ctx context.Context, id string) error {
	if err := s.memoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.engine.Remove(id)
	s.record(ctx, id, models.EventDeleted, "IF-memory deleted", nil)
	s.log.Infow("memory_deleted", "memory_id", id)
	return nil
}

// SetEnabled starts or stops an instance. Disabling discards its evaluation state.
func (s *MemoryService) SetEnabled(ctx context.Context, id string, enabled bool) (models.IfMemory, error) {
	m, err := s.memoryRepo.Get(ctx, id)
	if err != nil {
		return models.IfMemory{}, err
	}
	if m.Disabled == !enabled {
		return m, nil
	}
	if err := s.memoryRepo.SetDisabled(ctx, id, !enabled); err != nil {
		return models.IfMemory{}, err
	}
	m.Disabled = !enabled
	m.UpdatedAt = s.now()
	s.engine.Apply(m)
	s.recordEnabled(ctx, m)
	return m, nil
}

// Check validates a definition without storing it. Structural problems and
// destinations that can never accept the output are errors; references to
// undeclared sources and conditions that do not compile are warnings, since
// those fail per cycle rather than up front.
func (s *MemoryService) Check(ctx context.Context, m models.IfMemory) ValidationReport {
	var rep ValidationReport
	if err := m.Validate(); err != nil {
		var verrs models.ValidationErrors
		if !errors.As(err, &verrs) {
			verrs = models.ValidationErrors{{Field: "definition", Message: err.Error()}}
		}
		rep.Errors = append(rep.Errors, verrs...)
	}

	if m.OutputDestination.Validate() == nil && m.OutputType != "" {
		kind, err := s.store.Describe(ctx, m.OutputDestination)
		switch {
		case errors.Is(err, models.ErrNotFound):
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("output destination %s is not declared", m.OutputDestination))
		case err != nil:
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("output destination %s: %v", m.OutputDestination, err))
		case kind != models.ScalarKindFor(m.OutputType):
			rep.Errors = append(rep.Errors, models.ValidationError{
				Field:   "output_destination",
				Message: fmt.Sprintf("%s output cannot be written to %s holding %s values", m.OutputType, m.OutputDestination, kind),
			})
		}
	}

	kinds := make(map[string]models.ScalarKind, len(m.Bindings))
	for _, b := range m.Bindings {
		if b.Source.Validate() != nil {
			continue
		}
		kind, err := s.store.Describe(ctx, b.Source)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("binding [%s]: source %s is not declared", b.Alias, b.Source))
			kind = models.KindNumber
		}
		kinds[b.Alias] = kind
	}

	used := make(map[string]bool)
	for i, br := range m.Branches {
		if strings.TrimSpace(br.Condition) == "" {
			continue
		}
		for _, a := range expr.References(br.Condition) {
			used[a] = true
		}
		if err := s.checker.Check(br.Condition, kinds); err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("branch %d: %v", i, err))
		}
	}
	for _, b := range m.Bindings {
		if !used[b.Alias] {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("binding [%s] is not used by any branch", b.Alias))
		}
	}

	rep.Valid = len(rep.Errors) == 0
	return rep
}

func (s *MemoryService) recordEnabled(ctx context.Context, m models.IfMemory) {
	if m.Disabled {
		s.record(ctx, m.ID, models.EventDisabled, "IF-memory disabled", nil)
		return
	}
	s.record(ctx, m.ID, models.EventEnabled, "IF-memory enabled", nil)
}

// record appends to the event log; a failed append never fails the request.
func (s *MemoryService) record(ctx context.Context, id, typ, desc string, meta map[string]any) {
	ev := models.MemoryEvent{
		EventID:     uuid.NewString(),
		MemoryID:    id,
		OccurredAt:  s.now(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.log.Warnw("memory_event_append_failed", "memory_id", id, "type", typ, "err", err)
	}
}

// normalize trims names and gives every branch a stable id.
func normalize(m *models.IfMemory) {
	m.Name = strings.TrimSpace(m.Name)
	for i := range m.Branches {
		if m.Branches[i].ID == "" {
			m.Branches[i].ID = uuid.NewString()
		}
	}
	if m.Branches == nil {
		m.Branches = []models.Branch{}
	}
	if m.Bindings == nil {
		m.Bindings = []models.VariableBinding{}
	}
}
