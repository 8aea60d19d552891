package models

import "time"

// MaxBranches caps the per-cycle evaluation cost of one IfMemory.
const MaxBranches = 20

// MaxInterval is the largest accepted Interval, in engine interval units.
// It keeps Interval × unit inside time.Duration for units up to two hours.
const MaxInterval = 1_000_000

// OutputType decides how the selected value is written.
type OutputType string

const (
	OutputDigital OutputType = "Digital"
	OutputAnalog  OutputType = "Analog"
)

// VariableBinding maps an alias used as [alias] in condition text to a live source.
type VariableBinding struct {
	Alias  string          `json:"alias" yaml:"alias"`
	Source SourceReference `json:"source" yaml:"source"`
}

// Branch is one prioritized condition/output pair. Its order is its index in IfMemory.Branches.
type Branch struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Condition   string  `json:"condition" yaml:"condition"`
	OutputValue float64 `json:"output_value" yaml:"output_value"`
	Hysteresis  float64 `json:"hysteresis" yaml:"hysteresis"`
}

// IfMemory is an ordered if / else-if / else rule set writing one output.
type IfMemory struct {
	ID                string            `json:"id" yaml:"id,omitempty"`
	Name              string            `json:"name" yaml:"name"`
	Branches          []Branch          `json:"branches" yaml:"branches"`
	Bindings          []VariableBinding `json:"bindings" yaml:"bindings"`
	DefaultValue      float64           `json:"default_value" yaml:"default_value"`
	OutputDestination SourceReference   `json:"output_destination" yaml:"output_destination"`
	OutputType        OutputType        `json:"output_type" yaml:"output_type"`
	Interval          int               `json:"interval" yaml:"interval"`
	Disabled          bool              `json:"disabled" yaml:"disabled,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at" yaml:"-"`
}

// Clone returns a deep copy so callers never share branch or binding slices.
func (m IfMemory) Clone() IfMemory {
	out := m
	out.Branches = append([]Branch(nil), m.Branches...)
	out.Bindings = append([]VariableBinding(nil), m.Bindings...)
	return out
}

// Binding returns the binding for alias, if any.
func (m IfMemory) Binding(alias string) (VariableBinding, bool) {
	for _, b := range m.Bindings {
		if b.Alias == alias {
			return b, true
		}
	}
	return VariableBinding{}, false
}

// StructurallyEqual reports whether two definitions have the same branch
// sequence and bindings, i.e. whether runtime evaluation state may carry over.
func StructurallyEqual(a, b IfMemory) bool {
	if len(a.Branches) != len(b.Branches) || len(a.Bindings) != len(b.Bindings) {
		return false
	}
	for i := range a.Branches {
		if a.Branches[i].ID != b.Branches[i].ID || a.Branches[i].Condition != b.Branches[i].Condition {
			return false
		}
	}
	for i := range a.Bindings {
		if a.Bindings[i] != b.Bindings[i] {
			return false
		}
	}
	return a.Interval == b.Interval
}
