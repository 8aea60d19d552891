package service

import (
	"context"
	"errors"
	"memory_console"
	"memory_console/internal/livestore"
	"memory_console/internal/models"
	"time"
)

// ErrInvalidInput marks request errors the caller can fix by changing the input.
var ErrInvalidInput = errors.New("invalid input")

type inputError string

func (e inputError) Error() string        { return string(e) }
func (e inputError) Is(target error) bool { return target == ErrInvalidInput }

// LogFilter supports history filtering by time range, type and instance.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // one of the models.Event* types, or "" for all
	MemoryID string
	Limit    int
}

// TestParams is a dry-run request: one condition and the bindings it may use.
type TestParams struct {
	Condition string
	Bindings  []models.VariableBinding
}

// ValidationReport is the answer of a validate request. Errors block saving;
// warnings do not.
type ValidationReport struct {
	Valid    bool                    `json:"valid"`
	Errors   models.ValidationErrors `json:"errors,omitempty"`
	Warnings []string                `json:"warnings,omitempty"`
}

// Engine is the part of the evaluation engine the services drive.
type Engine interface {
	Apply(def models.IfMemory)
	Remove(id string)
	Stop()
	Status(id string) (memory_console.InstanceStatus, bool)
	Statuses() []memory_console.InstanceStatus
	TestCondition(ctx context.Context, condition string, bindings []models.VariableBinding) memory_console.TestConditionResult
	Preview(ctx context.Context, def models.IfMemory) (memory_console.PreviewResult, error)
}

// LiveStore holds current point and variable values.
type LiveStore interface {
	DeclarePoint(p models.Point)
	RemovePoint(id string)
	DeclareVariable(v models.GlobalVariable)
	RemoveVariable(name string)
	Sample(id string, v models.Scalar) error
	Set(ctx context.Context, ref models.SourceReference, v models.Scalar) error
	Describe(ctx context.Context, ref models.SourceReference) (models.ScalarKind, error)
	Values() []livestore.Value
}

// ConditionChecker compiles a condition against declared alias kinds.
type ConditionChecker interface {
	Check(condition string, kinds map[string]models.ScalarKind) error
}
