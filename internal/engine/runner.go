package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"memory_console"
	"memory_console/internal/logger"
	"memory_console/internal/metrics"
	"memory_console/internal/models"

	"github.com/google/uuid"
)

// runner owns one enabled IfMemory. def, state and the health fields are only
// touched by the loop goroutine; status is shared with readers under mu.
type runner struct {
	eng     *Engine
	log     *logger.Logger
	id      string
	def     models.IfMemory
	state   State
	updates chan models.IfMemory
	cancel  context.CancelFunc
	done    chan struct{}

	failKind   string // "" when healthy, else the failing event type
	delivered  bool
	lastBranch int
	lastValue  float64

	mu     sync.RWMutex
	status memory_console.InstanceStatus
}

func newRunner(e *Engine, def models.IfMemory) *runner {
	return &runner{
		eng:     e,
		log:     e.log.ForMemory(def.ID),
		id:      def.ID,
		def:     def,
		updates: make(chan models.IfMemory, 1),
		done:    make(chan struct{}),
		status: memory_console.InstanceStatus{
			ID:    def.ID,
			Name:  def.Name,
			State: memory_console.StateIdle,
		},
	}
}

func (r *runner) period() time.Duration {
	return periodOf(r.def.Interval, r.eng.cfg.IntervalUnit)
}

// periodOf returns interval × unit, saturated at the largest Duration.
// The result is always positive.
func periodOf(interval int, unit time.Duration) time.Duration {
	if interval < 1 {
		interval = 1
	}
	if unit <= 0 {
		unit = defaultIntervalUnit
	}
	if int64(interval) > math.MaxInt64/int64(unit) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(interval) * unit
}

func (r *runner) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	go r.loop(ctx)
}

// stop cancels the timer and waits for an in-flight cycle to finish.
func (r *runner) stop() {
	r.cancel()
	<-r.done
	if r.failKind != "" {
		r.eng.metrics.Degraded(-1)
	}
}

// push hands a new definition to the loop; only the latest pending one is kept.
func (r *runner) push(def models.IfMemory) {
	for {
		select {
		case r.updates <- def:
			return
		default:
			select {
			case <-r.updates:
			default:
			}
		}
	}
}

func (r *runner) loop(ctx context.Context) {
	defer close(r.done)

	r.cycle(ctx)
	ticker := time.NewTicker(r.period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case def := <-r.updates:
			prev := r.def.Interval
			r.apply(def)
			if def.Interval != prev {
				ticker.Reset(r.period())
			}
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// apply swaps the definition between cycles. Evaluation state survives only
// when branches and bindings are unchanged.
func (r *runner) apply(def models.IfMemory) {
	if !models.StructurallyEqual(r.def, def) {
		r.state.Reset()
		r.log.Infow("memory_state_reset")
	}
	r.def = def
	r.mu.Lock()
	r.status.Name = def.Name
	r.mu.Unlock()
}

func (r *runner) cycle(ctx context.Context) {
	start := r.eng.now()
	def := r.def

	snap, err := r.eng.bindings.Snapshot(ctx, def.Bindings)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.fail(ctx, start, nil, models.EventResolutionFailed, err)
		return
	}

	dec := Step(def, &r.state, func(b models.Branch) (bool, error) {
		return r.eng.eval.Evaluate(b.Condition, snap)
	})
	if n := len(dec.Warnings); n > 0 {
		r.eng.metrics.ConditionErrors(n)
		for _, w := range dec.Warnings {
			r.log.Debugw("branch_condition_failed", "order", w.Order, "err", w.Err)
		}
	}

	if err := r.eng.committer.Commit(ctx, def.OutputDestination, def.OutputType, dec.Value); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.fail(ctx, start, &dec, models.EventCommitFailed, err)
		return
	}
	r.succeed(ctx, start, dec)
}

func (r *runner) fail(ctx context.Context, start time.Time, dec *Decision, kind string, err error) {
	result := metrics.ResultResolutionFailed
	if kind == models.EventCommitFailed {
		result = metrics.ResultCommitFailed
	}
	r.eng.metrics.ObserveCycle(result, r.eng.now().Sub(start))

	if r.failKind != kind {
		if r.failKind == "" {
			r.eng.metrics.Degraded(1)
		}
		r.failKind = kind
		r.log.Warnw("memory_cycle_failed", "kind", kind, "err", err)
		r.eng.record(ctx, models.MemoryEvent{
			MemoryID:    r.id,
			Type:        kind,
			Description: err.Error(),
			Metadata:    errorMetadata(err),
		})
	} else {
		r.log.Debugw("memory_cycle_failed", "kind", kind, "err", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.State = memory_console.StateDegraded
	r.status.LastError = err.Error()
	r.status.ConsecutiveFailures++
	r.status.Cycles++
	at := start.UTC()
	r.status.LastCycleAt = &at
	if dec != nil {
		r.status.ActiveBranch, r.status.Held = branchPtr(dec.Branch), dec.Held
		r.status.Warnings = warningStrings(dec.Warnings)
	}
}

func (r *runner) succeed(ctx context.Context, start time.Time, dec Decision) {
	r.eng.metrics.ObserveCycle(metrics.ResultOK, r.eng.now().Sub(start))

	if r.failKind != "" {
		r.eng.metrics.Degraded(-1)
		r.log.Infow("memory_recovered", "after", r.failKind)
		r.eng.record(ctx, models.MemoryEvent{
			MemoryID:    r.id,
			Type:        models.EventRecovered,
			Description: "Cycle succeeded after " + r.failKind,
		})
		r.failKind = ""
	}

	if !r.delivered || r.lastBranch != dec.Branch || r.lastValue != dec.Value {
		r.log.Infow("memory_output_changed", "branch", dec.Branch, "value", dec.Value)
		meta := map[string]any{"branch": dec.Branch, "value": dec.Value}
		if r.delivered {
			meta["previous_branch"] = r.lastBranch
			meta["previous_value"] = r.lastValue
		}
		r.eng.record(ctx, models.MemoryEvent{
			MemoryID:    r.id,
			Type:        models.EventOutputChanged,
			Description: describeDecision(dec),
			Metadata:    meta,
		})
		r.delivered = true
		r.lastBranch = dec.Branch
		r.lastValue = dec.Value
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	value := dec.Value
	at := start.UTC()
	r.status.State = memory_console.StateRunning
	r.status.ActiveBranch = branchPtr(dec.Branch)
	r.status.Held = dec.Held
	r.status.LastOutput = &value
	r.status.LastCycleAt = &at
	r.status.LastError = ""
	r.status.Warnings = warningStrings(dec.Warnings)
	r.status.ConsecutiveFailures = 0
	r.status.Cycles++
}

func (r *runner) snapshot() memory_console.InstanceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := r.status
	st.Warnings = append([]string(nil), r.status.Warnings...)
	return st
}

func (e *Engine) record(ctx context.Context, ev models.MemoryEvent) {
	if e.events == nil {
		return
	}
	ev.EventID = uuid.NewString()
	ev.OccurredAt = e.now().UTC()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CommitTimeout)
	defer cancel()
	if err := e.events.Append(ctx, ev); err != nil {
		e.log.Warnw("memory_event_append_failed", "memory_id", ev.MemoryID, "type", ev.Type, "err", err)
	}
}

func branchPtr(order int) *int {
	if order == NoBranch {
		return nil
	}
	return &order
}

func warningStrings(ws []BranchWarning) []string {
	if len(ws) == 0 {
		return nil
	}
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Err.Error())
	}
	return out
}

func describeDecision(dec Decision) string {
	if dec.Branch == NoBranch {
		return "Default value selected"
	}
	if dec.Held {
		return "Branch held by hysteresis"
	}
	return "Branch selected"
}

func errorMetadata(err error) map[string]any {
	meta := map[string]any{}
	var rerr *ResolutionError
	if errors.As(err, &rerr) {
		meta["alias"] = rerr.Alias
		meta["source"] = rerr.Ref.Encode()
	}
	var cerr *CommitError
	if errors.As(err, &cerr) {
		meta["destination"] = cerr.Ref.Encode()
		meta["value"] = cerr.Value.Native()
	}
	switch {
	case errors.Is(err, ErrTimeout):
		meta["reason"] = "timeout"
	case errors.Is(err, models.ErrNotFound):
		meta["reason"] = "not_found"
	case errors.Is(err, models.ErrStaleOrUnavailable):
		meta["reason"] = "stale"
	case errors.Is(err, models.ErrTypeMismatch):
		meta["reason"] = "type_mismatch"
	case errors.Is(err, models.ErrNotWritable):
		meta["reason"] = "not_writable"
	}
	return meta
}
