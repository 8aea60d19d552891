package engine

import (
	"context"

	"memory_console"
	"memory_console/internal/models"
)

// Dry-run failure stages.
const (
	StageResolve  = "resolve"
	StageEvaluate = "evaluate"
)

// TestCondition resolves the given bindings and evaluates one condition
// against them. Nothing is committed and no instance state is touched.
func (e *Engine) TestCondition(ctx context.Context, condition string, bindings []models.VariableBinding) memory_console.TestConditionResult {
	snap, err := e.bindings.Snapshot(ctx, bindings)
	if err != nil {
		return memory_console.TestConditionResult{Stage: StageResolve, Error: err.Error()}
	}
	res := memory_console.TestConditionResult{Values: nativeValues(snap)}
	ok, err := e.eval.Evaluate(condition, snap)
	if err != nil {
		res.Stage = StageEvaluate
		res.Error = err.Error()
		return res
	}
	res.Valid = true
	res.Result = ok
	return res
}

// Preview evaluates every branch of def once with a fresh state and reports
// the value that would be committed. The returned error is a *ResolutionError.
func (e *Engine) Preview(ctx context.Context, def models.IfMemory) (memory_console.PreviewResult, error) {
	snap, err := e.bindings.Snapshot(ctx, def.Bindings)
	if err != nil {
		return memory_console.PreviewResult{}, err
	}

	results := make([]memory_console.BranchResult, len(def.Branches))
	errs := make([]error, len(def.Branches))
	for i, b := range def.Branches {
		ok, err := e.eval.Evaluate(b.Condition, snap)
		results[i] = memory_console.BranchResult{Order: i, Name: b.Name, Condition: b.Condition, Result: ok}
		if err != nil {
			results[i].Error = err.Error()
			errs[i] = err
		}
	}

	// Step walks the branches in order, so a counter maps calls to results.
	var st State
	next := 0
	dec := Step(def, &st, func(models.Branch) (bool, error) {
		i := next
		next++
		return results[i].Result, errs[i]
	})

	return memory_console.PreviewResult{
		Branch:   branchPtr(dec.Branch),
		Value:    dec.Value,
		Output:   OutputScalar(def.OutputType, dec.Value).Native(),
		Branches: results,
		Values:   nativeValues(snap),
	}, nil
}

func nativeValues(snap models.Snapshot) map[string]any {
	out := make(map[string]any, snap.Len())
	for alias, v := range snap.Values() {
		out[alias] = v.Native()
	}
	return out
}
