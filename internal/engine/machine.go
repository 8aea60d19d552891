package engine

import (
	"math"

	"memory_console/internal/models"
)

// NoBranch marks a decision that fell through to the default value.
const NoBranch = -1

// State is the transient evaluation state of one instance: which branch is
// latched and for how many consecutive cycles it has evaluated false.
// The zero value has no active branch.
type State struct {
	active   int
	latched  bool
	falseRun int
}

// ActiveBranch returns the order of the latched branch, if any.
func (s State) ActiveBranch() (int, bool) { return s.active, s.latched }

// FalseRun is the number of consecutive false cycles of the active branch.
func (s State) FalseRun() int { return s.falseRun }

func (s *State) Reset() { *s = State{} }

func (s *State) latch(order int) {
	s.active = order
	s.latched = true
	s.falseRun = 0
}

// BranchWarning reports a branch whose condition could not be evaluated.
type BranchWarning struct {
	Order int
	Err   error
}

// Decision is the outcome of one cycle.
type Decision struct {
	Branch   int // NoBranch for the default value
	Value    float64
	Held     bool // active branch kept by hysteresis although its condition is false
	Warnings []BranchWarning
}

// ConditionFunc evaluates one branch condition for the current cycle.
type ConditionFunc func(b models.Branch) (bool, error)

// ReleaseCycles is the number of consecutive false cycles after which a branch
// with the given hysteresis is deselected: ceil(hysteresis / interval).
// The result saturates at math.MaxInt.
func ReleaseCycles(hysteresis float64, interval int) int {
	if hysteresis <= 0 || math.IsNaN(hysteresis) || interval < 1 {
		return 0
	}
	n := math.Ceil(hysteresis / float64(interval))
	if n >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

// Step runs one cycle of the branch state machine and updates st.
//
// Branches are walked in order. The first branch whose condition is true wins.
// When the latched branch evaluates false it is kept (Held) until it has been
// false for ReleaseCycles cycles; lower-priority branches are not considered
// while it is held. A branch whose condition errors counts as false.
func Step(def models.IfMemory, st *State, eval ConditionFunc) Decision {
	dec := Decision{Branch: NoBranch, Value: def.DefaultValue}

	active, latched := st.ActiveBranch()
	if latched && active >= len(def.Branches) {
		st.Reset()
		latched = false
	}

	for i, b := range def.Branches {
		ok, err := eval(b)
		if err != nil {
			dec.Warnings = append(dec.Warnings, BranchWarning{Order: i, Err: err})
			ok = false
		}
		if ok {
			st.latch(i)
			dec.Branch = i
			dec.Value = b.OutputValue
			return dec
		}
		if latched && i == active && st.falseRun+1 < ReleaseCycles(b.Hysteresis, def.Interval) {
			st.falseRun++
			dec.Branch = i
			dec.Value = b.OutputValue
			dec.Held = true
			return dec
		}
	}

	st.Reset()
	return dec
}
