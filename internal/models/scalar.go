package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScalarKind tags the variant held by a Scalar.
type ScalarKind uint8

const (
	KindNumber ScalarKind = iota
	KindBool
)

func (k ScalarKind) String() string {
	if k == KindBool {
		return "bool"
	}
	return "number"
}

func (k ScalarKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ScalarKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "bool", "boolean":
		*k = KindBool
	case "number", "numeric", "":
		*k = KindNumber
	default:
		return fmt.Errorf("unknown scalar kind %q", text)
	}
	return nil
}

// Convert returns s expressed as kind k using the AsBool/AsNumber rules.
func (s Scalar) Convert(k ScalarKind) Scalar {
	if k == KindBool {
		return Bool(s.AsBool())
	}
	return Number(s.AsNumber())
}

// Scalar is a live value read from or written to a point or global variable.
// It is either a Bool or a Number; the zero value is Number(0).
type Scalar struct {
	kind ScalarKind
	b    bool
	n    float64
}

func Bool(v bool) Scalar      { return Scalar{kind: KindBool, b: v} }
func Number(v float64) Scalar { return Scalar{kind: KindNumber, n: v} }

func (s Scalar) Kind() ScalarKind { return s.kind }
func (s Scalar) IsBool() bool     { return s.kind == KindBool }

// AsBool converts to bool: Bool as-is, Number is true when non-zero.
func (s Scalar) AsBool() bool {
	if s.kind == KindBool {
		return s.b
	}
	return s.n != 0
}

// AsNumber converts to float64: Bool maps to 1/0, Number as-is.
func (s Scalar) AsNumber() float64 {
	if s.kind == KindBool {
		if s.b {
			return 1
		}
		return 0
	}
	return s.n
}

// Native returns the Go value (bool or float64) for use in expression bindings.
func (s Scalar) Native() any {
	if s.kind == KindBool {
		return s.b
	}
	return s.n
}

func (s Scalar) String() string {
	if s.kind == KindBool {
		return strconv.FormatBool(s.b)
	}
	return strconv.FormatFloat(s.n, 'g', -1, 64)
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Native())
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ScalarFromAny(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Scalar) MarshalYAML() (any, error) {
	return s.Native(), nil
}

func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := ScalarFromAny(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ScalarFromAny accepts bool and numeric Go values.
func ScalarFromAny(v any) (Scalar, error) {
	switch x := v.(type) {
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Scalar{}, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(f), nil
	default:
		return Scalar{}, fmt.Errorf("unsupported scalar value %v (%T)", v, v)
	}
}

// ParseScalar parses "true"/"false" as Bool and anything numeric as Number.
func ParseScalar(s string) (Scalar, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Scalar{}, fmt.Errorf("invalid scalar %q: expected bool or number", s)
	}
	return Number(f), nil
}
