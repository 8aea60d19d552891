// Package livestore holds the current values of points and global variables.
// It is shared by every running IfMemory and is safe for concurrent use.
package livestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"memory_console/internal/models"
)

type pointEntry struct {
	point     models.Point
	value     models.Scalar
	sampledAt time.Time
	sampled   bool
}

type variableEntry struct {
	variable models.GlobalVariable
	value    models.Scalar
}

// Store is an in-process point/variable store. Reads and writes of the same
// key are linearized by one RWMutex, which gives read-your-writes per key.
type Store struct {
	mu         sync.RWMutex
	points     map[string]*pointEntry
	variables  map[string]*variableEntry
	staleAfter time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithStaleAfter marks point samples older than d as unavailable. Zero disables the check.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) { s.staleAfter = d }
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		points:    make(map[string]*pointEntry),
		variables: make(map[string]*variableEntry),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DeclarePoint adds or updates a point definition, keeping any sample already taken.
func (s *Store) DeclarePoint(p models.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.points[p.ID]; ok {
		e.point = p
		return
	}
	s.points[p.ID] = &pointEntry{point: p}
}

func (s *Store) RemovePoint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.points, id)
}

// DeclareVariable adds a variable with its initial value, or updates the
// definition of an existing one while converting its current value to the new kind.
func (s *Store) DeclareVariable(v models.GlobalVariable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.variables[v.Name]; ok {
		e.variable = v
		e.value = e.value.Convert(v.Kind)
		return
	}
	s.variables[v.Name] = &variableEntry{variable: v, value: v.InitialValue.Convert(v.Kind)}
}

func (s *Store) RemoveVariable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.variables, name)
}

// Sample records a field reading for a point. Readings are stored in the point's
// own kind: digital points keep Bool, analog points keep Number.
func (s *Store) Sample(id string, v models.Scalar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.points[id]
	if !ok {
		return fmt.Errorf("point %q: %w", id, models.ErrNotFound)
	}
	e.value = v.Convert(pointScalarKind(e.point.Kind))
	e.sampledAt = s.now()
	e.sampled = true
	return nil
}

// Get returns the current value behind ref.
func (s *Store) Get(ctx context.Context, ref models.SourceReference) (models.Scalar, error) {
	if err := ctx.Err(); err != nil {
		return models.Scalar{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ref.Kind {
	case models.SourceGlobalVariable:
		e, ok := s.variables[ref.Locator]
		if !ok {
			return models.Scalar{}, fmt.Errorf("global variable %q: %w", ref.Locator, models.ErrNotFound)
		}
		return e.value, nil
	default:
		e, ok := s.points[ref.Locator]
		if !ok {
			return models.Scalar{}, fmt.Errorf("point %q: %w", ref.Locator, models.ErrNotFound)
		}
		if !e.sampled {
			return models.Scalar{}, fmt.Errorf("point %q: %w", ref.Locator, models.ErrStaleOrUnavailable)
		}
		if s.staleAfter > 0 && s.now().Sub(e.sampledAt) > s.staleAfter {
			return models.Scalar{}, fmt.Errorf("point %q sampled at %s: %w",
				ref.Locator, e.sampledAt.UTC().Format(time.RFC3339), models.ErrStaleOrUnavailable)
		}
		return e.value, nil
	}
}

// Set writes v to the destination behind ref. The value must already have the
// destination's kind; conversion is the caller's job.
func (s *Store) Set(ctx context.Context, ref models.SourceReference, v models.Scalar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ref.Kind {
	case models.SourceGlobalVariable:
		e, ok := s.variables[ref.Locator]
		if !ok {
			return fmt.Errorf("global variable %q: %w", ref.Locator, models.ErrNotFound)
		}
		if e.variable.Kind != v.Kind() {
			return fmt.Errorf("global variable %q is %s, value is %s: %w",
				ref.Locator, e.variable.Kind, v.Kind(), models.ErrTypeMismatch)
		}
		e.value = v
		return nil
	default:
		e, ok := s.points[ref.Locator]
		if !ok {
			return fmt.Errorf("point %q: %w", ref.Locator, models.ErrNotFound)
		}
		if !e.point.Writable {
			return fmt.Errorf("point %q: %w", ref.Locator, models.ErrNotWritable)
		}
		if pointScalarKind(e.point.Kind) != v.Kind() {
			return fmt.Errorf("point %q is %s, value is %s: %w",
				ref.Locator, e.point.Kind, v.Kind(), models.ErrTypeMismatch)
		}
		e.value = v
		e.sampledAt = s.now()
		e.sampled = true
		return nil
	}
}

// Describe returns the scalar kind a destination stores.
func (s *Store) Describe(ctx context.Context, ref models.SourceReference) (models.ScalarKind, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ref.Kind == models.SourceGlobalVariable {
		e, ok := s.variables[ref.Locator]
		if !ok {
			return 0, fmt.Errorf("global variable %q: %w", ref.Locator, models.ErrNotFound)
		}
		return e.variable.Kind, nil
	}
	e, ok := s.points[ref.Locator]
	if !ok {
		return 0, fmt.Errorf("point %q: %w", ref.Locator, models.ErrNotFound)
	}
	return pointScalarKind(e.point.Kind), nil
}

// Value is a current reading exposed to the API.
type Value struct {
	Ref       string        `json:"ref"`
	Value     models.Scalar `json:"value"`
	SampledAt *time.Time    `json:"sampled_at,omitempty"`
}

// Values lists every sampled point and every variable, ordered by reference.
func (s *Store) Values() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Value, 0, len(s.points)+len(s.variables))
	for id, e := range s.points {
		if !e.sampled {
			continue
		}
		at := e.sampledAt.UTC()
		out = append(out, Value{Ref: models.PointRef(id).Encode(), Value: e.value, SampledAt: &at})
	}
	for name, e := range s.variables {
		out = append(out, Value{Ref: models.GlobalVariableRef(name).Encode(), Value: e.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}

func pointScalarKind(k models.PointKind) models.ScalarKind {
	if k == models.PointDigital {
		return models.KindBool
	}
	return models.KindNumber
}
