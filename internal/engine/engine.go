package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"memory_console"
	"memory_console/internal/logger"
	"memory_console/internal/metrics"
	"memory_console/internal/models"
)

// Evaluator is the condition-expression capability: evaluate condition text
// against one binding snapshot.
type Evaluator interface {
	Evaluate(condition string, snap models.Snapshot) (bool, error)
}

// EventRecorder receives runtime transitions (output changes, failures, recovery).
type EventRecorder interface {
	Append(ctx context.Context, e models.MemoryEvent) error
}

// Config holds the timing knobs of the engine.
type Config struct {
	// IntervalUnit is the duration of one IfMemory interval unit.
	IntervalUnit   time.Duration
	ResolveTimeout time.Duration
	CommitTimeout  time.Duration
}

const defaultIntervalUnit = time.Second

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithEvents records output changes and health transitions.
func WithEvents(r EventRecorder) Option { return func(e *Engine) { e.events = r } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// Engine runs every enabled IfMemory on its own timer. Instances are independent;
// cycles of one instance never overlap.
type Engine struct {
	cfg       Config
	resolver  *Resolver
	bindings  *BindingTable
	committer *Committer
	eval      Evaluator
	events    EventRecorder
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	runners  map[string]*runner
	disabled map[string]string // id -> name
	stopped  bool
}

func New(store Store, eval Evaluator, cfg Config, opts ...Option) *Engine {
	if cfg.IntervalUnit <= 0 {
		cfg.IntervalUnit = defaultIntervalUnit
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaultStoreTimeout
	}
	if cfg.CommitTimeout <= 0 {
		cfg.CommitTimeout = defaultStoreTimeout
	}
	resolver := NewResolver(store, cfg.ResolveTimeout)
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:       cfg,
		resolver:  resolver,
		bindings:  NewBindingTable(resolver),
		committer: NewCommitter(store, cfg.CommitTimeout),
		eval:      eval,
		log:       logger.Nop(),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		runners:   make(map[string]*runner),
		disabled:  make(map[string]string),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply creates or updates the instance for def. A disabled definition stops
// its timer and discards the evaluation state. Updates of a running instance
// take effect between two cycles.
func (e *Engine) Apply(def models.IfMemory) {
	def = def.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	r, running := e.runners[def.ID]
	if def.Disabled {
		if running {
			r.stop()
			delete(e.runners, def.ID)
			e.log.Infow("memory_stopped", "memory_id", def.ID, "reason", "disabled")
		}
		e.disabled[def.ID] = def.Name
		e.metrics.SetRunning(len(e.runners))
		return
	}

	delete(e.disabled, def.ID)
	if running {
		r.push(def)
		return
	}
	r = newRunner(e, def)
	e.runners[def.ID] = r
	r.start(e.ctx)
	e.metrics.SetRunning(len(e.runners))
	e.log.Infow("memory_started", "memory_id", def.ID, "period", r.period().String())
}

// Remove stops and forgets an instance.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.runners[id]; ok {
		r.stop()
		delete(e.runners, id)
		e.log.Infow("memory_stopped", "memory_id", id, "reason", "deleted")
	}
	delete(e.disabled, id)
	e.metrics.SetRunning(len(e.runners))
}

// Stop cancels every instance and waits for in-flight cycles.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	e.cancel()
	for id, r := range e.runners {
		r.stop()
		delete(e.runners, id)
	}
	e.metrics.SetRunning(0)
}

// Status returns the runtime status of one instance.
func (e *Engine) Status(id string) (memory_console.InstanceStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.runners[id]; ok {
		return r.snapshot(), true
	}
	if name, ok := e.disabled[id]; ok {
		return disabledStatus(id, name), true
	}
	return memory_console.InstanceStatus{}, false
}

// Statuses returns every known instance ordered by name, then id.
func (e *Engine) Statuses() []memory_console.InstanceStatus {
	e.mu.Lock()
	out := make([]memory_console.InstanceStatus, 0, len(e.runners)+len(e.disabled))
	for _, r := range e.runners {
		out = append(out, r.snapshot())
	}
	for id, name := range e.disabled {
		out = append(out, disabledStatus(id, name))
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func disabledStatus(id, name string) memory_console.InstanceStatus {
	return memory_console.InstanceStatus{ID: id, Name: name, State: memory_console.StateDisabled}
}
