package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"memory_console"
	"memory_console/internal/livestore"
	"memory_console/internal/models"
)

type fakeMemoryRepo struct {
	mu      sync.Mutex
	items   map[string]models.IfMemory
	saveErr error
	saves   int
}

func newFakeMemoryRepo(items ...models.IfMemory) *fakeMemoryRepo {
	r := &fakeMemoryRepo{items: map[string]models.IfMemory{}}
	for _, m := range items {
		r.items[m.ID] = m
	}
	return r
}

func (r *fakeMemoryRepo) Save(_ context.Context, m models.IfMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.items[m.ID] = m.Clone()
	return nil
}

func (r *fakeMemoryRepo) Get(_ context.Context, id string) (models.IfMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return models.IfMemory{}, fmt.Errorf("if-memory %q: %w", id, models.ErrNotFound)
	}
	return m.Clone(), nil
}

func (r *fakeMemoryRepo) List(context.Context) ([]models.IfMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.IfMemory, 0, len(r.items))
	for _, m := range r.items {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeMemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("if-memory %q: %w", id, models.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMemoryRepo) SetDisabled(_ context.Context, id string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return fmt.Errorf("if-memory %q: %w", id, models.ErrNotFound)
	}
	m.Disabled = disabled
	r.items[id] = m
	return nil
}

type fakeCatalogRepo struct {
	points    map[string]models.Point
	variables map[string]models.GlobalVariable
	listErr   error
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{points: map[string]models.Point{}, variables: map[string]models.GlobalVariable{}}
}

func (r *fakeCatalogRepo) SavePoint(_ context.Context, p models.Point) error {
	r.points[p.ID] = p
	return nil
}

func (r *fakeCatalogRepo) GetPoint(_ context.Context, id string) (models.Point, error) {
	p, ok := r.points[id]
	if !ok {
		return models.Point{}, models.ErrNotFound
	}
	return p, nil
}

func (r *fakeCatalogRepo) ListPoints(context.Context) ([]models.Point, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Point, 0, len(r.points))
	for _, p := range r.points {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeCatalogRepo) DeletePoint(_ context.Context, id string) error {
	if _, ok := r.points[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.points, id)
	return nil
}

func (r *fakeCatalogRepo) SaveVariable(_ context.Context, v models.GlobalVariable) error {
	r.variables[v.Name] = v
	return nil
}

func (r *fakeCatalogRepo) GetVariable(_ context.Context, name string) (models.GlobalVariable, error) {
	v, ok := r.variables[name]
	if !ok {
		return models.GlobalVariable{}, models.ErrNotFound
	}
	return v, nil
}

func (r *fakeCatalogRepo) ListVariables(context.Context) ([]models.GlobalVariable, error) {
	out := make([]models.GlobalVariable, 0, len(r.variables))
	for _, v := range r.variables {
		out = append(out, v)
	}
	return out, nil
}

func (r *fakeCatalogRepo) DeleteVariable(_ context.Context, name string) error {
	if _, ok := r.variables[name]; !ok {
		return models.ErrNotFound
	}
	delete(r.variables, name)
	return nil
}

// fakeEngine records what the services ask of the engine.
type fakeEngine struct {
	mu       sync.Mutex
	applied  []models.IfMemory
	removed  []string
	stopped  bool
	statuses map[string]memory_console.InstanceStatus

	testResult    memory_console.TestConditionResult
	previewResult memory_console.PreviewResult
	previewErr    error
	previewed     []models.IfMemory
}

func (e *fakeEngine) Apply(def models.IfMemory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = append(e.applied, def)
}

func (e *fakeEngine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = append(e.removed, id)
}

func (e *fakeEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
}

func (e *fakeEngine) Status(id string) (memory_console.InstanceStatus, bool) {
	st, ok := e.statuses[id]
	return st, ok
}

func (e *fakeEngine) Statuses() []memory_console.InstanceStatus {
	out := make([]memory_console.InstanceStatus, 0, len(e.statuses))
	for _, st := range e.statuses {
		out = append(out, st)
	}
	return out
}

func (e *fakeEngine) TestCondition(context.Context, string, []models.VariableBinding) memory_console.TestConditionResult {
	return e.testResult
}

func (e *fakeEngine) Preview(_ context.Context, def models.IfMemory) (memory_console.PreviewResult, error) {
	e.previewed = append(e.previewed, def)
	return e.previewResult, e.previewErr
}

func (e *fakeEngine) appliedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.applied)
}

// testStore returns a live store with a small catalog.
func testStore() *livestore.Store {
	s := livestore.New()
	s.DeclarePoint(models.Point{ID: "ai-1", Name: "Temperature", Kind: models.PointAnalog})
	s.DeclarePoint(models.Point{ID: "do-1", Name: "Heater", Kind: models.PointDigital, Writable: true})
	s.DeclarePoint(models.Point{ID: "ao-1", Name: "Valve", Kind: models.PointAnalog, Writable: true})
	s.DeclareVariable(models.GlobalVariable{Name: "setpoint", Kind: models.KindNumber, InitialValue: models.Number(21)})
	return s
}
