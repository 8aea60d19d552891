package models

// PointKind is the signal type of a field point.
type PointKind string

const (
	PointDigital PointKind = "Digital"
	PointAnalog  PointKind = "Analog"
)

// Point is a monitored/controlled field item identified by a stable GUID.
type Point struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Kind     PointKind `json:"kind" yaml:"kind"`
	Writable bool      `json:"writable" yaml:"writable"`
}

// GlobalVariable is a named process-wide scalar not tied to a physical point.
type GlobalVariable struct {
	Name         string     `json:"name" yaml:"name"`
	Kind         ScalarKind `json:"kind" yaml:"kind"`
	InitialValue Scalar     `json:"initial_value" yaml:"initial_value"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Accepts reports whether a destination of this point kind can take output of type t.
func (k PointKind) Accepts(t OutputType) bool {
	return (k == PointDigital && t == OutputDigital) || (k == PointAnalog && t == OutputAnalog)
}

// ScalarKindFor is the variable kind that can take output of type t.
func ScalarKindFor(t OutputType) ScalarKind {
	if t == OutputDigital {
		return KindBool
	}
	return KindNumber
}
