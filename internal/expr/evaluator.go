// Package expr evaluates IF-memory branch conditions with CEL.
//
// Condition text refers to bound variables as [alias]; before compilation each
// reference is rewritten to a generated CEL identifier declared with the type of
// the bound value (bool or double). Compiled programs are cached per condition
// and binding type signature.
package expr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"memory_console/internal/models"

	"github.com/google/cel-go/cel"
)

const (
	defaultCacheSize = 1024
	defaultCostLimit = 100_000
)

var (
	ErrEmptyCondition = errors.New("condition is empty")
	ErrUnknownAlias   = errors.New("unknown alias")
	ErrNotBoolean     = errors.New("condition does not evaluate to a boolean")
)

// EvalError is returned for any condition that cannot produce a boolean.
// It is local to one branch and never aborts a cycle.
type EvalError struct {
	Condition string
	Err       error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("condition %q: %v", e.Condition, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluator compiles and runs conditions. It is safe for concurrent use.
type Evaluator struct {
	mu        sync.Mutex
	programs  map[string]cel.Program
	cacheSize int
	costLimit uint64
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		programs:  make(map[string]cel.Program),
		cacheSize: defaultCacheSize,
		costLimit: defaultCostLimit,
	}
}

// Evaluate runs condition against the snapshot.
func (e *Evaluator) Evaluate(condition string, snap models.Snapshot) (bool, error) {
	if strings.TrimSpace(condition) == "" {
		return false, &EvalError{Condition: condition, Err: ErrEmptyCondition}
	}
	text, refs := rewrite(condition)

	kinds := make(map[string]models.ScalarKind, len(refs))
	activation := make(map[string]any, len(refs))
	for _, a := range refs {
		v, ok := snap.Lookup(a)
		if !ok {
			return false, &EvalError{Condition: condition, Err: fmt.Errorf("%w [%s]", ErrUnknownAlias, a)}
		}
		kinds[a] = v.Kind()
		activation[ident(a)] = v.Native()
	}

	prg, err := e.program(text, kinds)
	if err != nil {
		return false, evalError(condition, err, refs)
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return false, evalError(condition, err, refs)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, &EvalError{Condition: condition, Err: ErrNotBoolean}
	}
	return result, nil
}

// Check compiles condition against declared alias kinds without evaluating it.
func (e *Evaluator) Check(condition string, kinds map[string]models.ScalarKind) error {
	if strings.TrimSpace(condition) == "" {
		return &EvalError{Condition: condition, Err: ErrEmptyCondition}
	}
	text, refs := rewrite(condition)
	used := make(map[string]models.ScalarKind, len(refs))
	for _, a := range refs {
		k, ok := kinds[a]
		if !ok {
			return &EvalError{Condition: condition, Err: fmt.Errorf("%w [%s]", ErrUnknownAlias, a)}
		}
		used[a] = k
	}
	if _, err := e.program(text, used); err != nil {
		return evalError(condition, err, refs)
	}
	return nil
}

func (e *Evaluator) program(text string, kinds map[string]models.ScalarKind) (cel.Program, error) {
	key := cacheKey(text, kinds)

	e.mu.Lock()
	prg, ok := e.programs[key]
	e.mu.Unlock()
	if ok {
		return prg, nil
	}

	prg, err := e.compile(text, kinds)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.programs) >= e.cacheSize {
		e.programs = make(map[string]cel.Program, e.cacheSize)
	}
	e.programs[key] = prg
	e.mu.Unlock()
	return prg, nil
}

func (e *Evaluator) compile(text string, kinds map[string]models.ScalarKind) (cel.Program, error) {
	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for alias, k := range kinds {
		t := cel.DoubleType
		if k == models.KindBool {
			t = cel.BoolType
		}
		opts = append(opts, cel.Variable(ident(alias), t))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("build environment: %w", err)
	}

	ast, iss := env.Compile(text)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: got %s", ErrNotBoolean, ast.OutputType())
	}
	prg, err := env.Program(ast, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("generate program: %w", err)
	}
	return prg, nil
}

func evalError(condition string, err error, refs []string) *EvalError {
	if errors.Is(err, ErrNotBoolean) {
		return &EvalError{Condition: condition, Err: err}
	}
	return &EvalError{Condition: condition, Err: errors.New(humanize(err.Error(), refs))}
}

func cacheKey(text string, kinds map[string]models.ScalarKind) string {
	aliases := make([]string, 0, len(kinds))
	for a := range kinds {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	var b strings.Builder
	b.WriteString(text)
	for _, a := range aliases {
		b.WriteByte(0)
		b.WriteString(a)
		b.WriteByte('=')
		b.WriteString(kinds[a].String())
	}
	return b.String()
}
