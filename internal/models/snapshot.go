package models

import "sort"

// Snapshot is the immutable alias -> value environment of one evaluation cycle.
type Snapshot struct {
	values map[string]Scalar
}

// NewSnapshot copies values so later changes to the map are not visible.
func NewSnapshot(values map[string]Scalar) Snapshot {
	cp := make(map[string]Scalar, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Snapshot{values: cp}
}

func (s Snapshot) Lookup(alias string) (Scalar, bool) {
	v, ok := s.values[alias]
	return v, ok
}

func (s Snapshot) Len() int { return len(s.values) }

// Aliases returns the bound aliases in sorted order.
func (s Snapshot) Aliases() []string {
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Values returns a copy of the underlying map.
func (s Snapshot) Values() map[string]Scalar {
	cp := make(map[string]Scalar, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}
