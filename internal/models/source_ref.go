package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceKind is the kind of live data a SourceReference points at.
type SourceKind string

const (
	SourcePoint          SourceKind = "Point"
	SourceGlobalVariable SourceKind = "GlobalVariable"
)

// Wire prefixes. An unprefixed string is a legacy point reference.
const (
	pointPrefix          = "P:"
	globalVariablePrefix = "GV:"
)

var errEmptyLocator = errors.New("source reference locator is empty")

// SourceReference is a typed pointer to live data: a point GUID or a global variable name.
type SourceReference struct {
	Kind    SourceKind `json:"kind"`
	Locator string     `json:"locator"`
}

func PointRef(id string) SourceReference {
	return SourceReference{Kind: SourcePoint, Locator: id}
}

func GlobalVariableRef(name string) SourceReference {
	return SourceReference{Kind: SourceGlobalVariable, Locator: name}
}

// DecodeSourceReference strips one "P:" or "GV:" prefix. Anything else is
// read as a point id, never as a global variable.
func DecodeSourceReference(s string) SourceReference {
	switch {
	case strings.HasPrefix(s, globalVariablePrefix):
		return GlobalVariableRef(strings.TrimPrefix(s, globalVariablePrefix))
	case strings.HasPrefix(s, pointPrefix):
		return PointRef(strings.TrimPrefix(s, pointPrefix))
	default:
		return PointRef(s)
	}
}

// Encode always emits the explicit prefix.
func (r SourceReference) Encode() string {
	if r.Kind == SourceGlobalVariable {
		return globalVariablePrefix + r.Locator
	}
	return pointPrefix + r.Locator
}

func (r SourceReference) String() string { return r.Encode() }

func (r SourceReference) IsZero() bool { return r.Kind == "" && r.Locator == "" }

// Validate reports whether r is well formed.
func (r SourceReference) Validate() error {
	switch r.Kind {
	case SourcePoint, SourceGlobalVariable:
	default:
		return fmt.Errorf("unknown source kind %q", r.Kind)
	}
	if strings.TrimSpace(r.Locator) == "" {
		return errEmptyLocator
	}
	return nil
}

func (r SourceReference) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Encode())
}

func (r *SourceReference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("source reference must be a string: %w", err)
	}
	*r = DecodeSourceReference(s)
	return nil
}

func (r SourceReference) MarshalYAML() (any, error) {
	return r.Encode(), nil
}

func (r *SourceReference) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("source reference must be a string: %w", err)
	}
	*r = DecodeSourceReference(s)
	return nil
}
