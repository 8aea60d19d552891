package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// ValidAlias reports whether s can be used as a binding alias.
func ValidAlias(s string) bool { return aliasPattern.MatchString(s) }

// ValidationError describes one rejected field of a definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Message }

// ValidationErrors collects every problem found in one definition.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "invalid if-memory: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate rejects configuration errors before a definition can reach the engine.
// It returns nil or a ValidationErrors.
func (m IfMemory) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(m.Name) == "" {
		errs.add("name", "is required")
	}
	if m.Interval < 1 || m.Interval > MaxInterval {
		errs.add("interval", "must be between 1 and %d, got %d", MaxInterval, m.Interval)
	}
	switch m.OutputType {
	case OutputDigital, OutputAnalog:
	default:
		errs.add("output_type", "must be %s or %s, got %q", OutputDigital, OutputAnalog, m.OutputType)
	}
	if err := m.OutputDestination.Validate(); err != nil {
		errs.add("output_destination", "%v", err)
	}
	if math.IsNaN(m.DefaultValue) || math.IsInf(m.DefaultValue, 0) {
		errs.add("default_value", "must be finite")
	}

	if len(m.Branches) > MaxBranches {
		errs.add("branches", "at most %d branches allowed, got %d", MaxBranches, len(m.Branches))
	}
	for i, b := range m.Branches {
		field := fmt.Sprintf("branches[%d]", i)
		if strings.TrimSpace(b.Condition) == "" {
			errs.add(field+".condition", "must not be empty")
		}
		if b.Hysteresis < 0 || math.IsNaN(b.Hysteresis) || math.IsInf(b.Hysteresis, 0) {
			errs.add(field+".hysteresis", "must be finite and >= 0, got %v", b.Hysteresis)
		}
		if math.IsNaN(b.OutputValue) || math.IsInf(b.OutputValue, 0) {
			errs.add(field+".output_value", "must be finite")
		}
	}

	seen := make(map[string]struct{}, len(m.Bindings))
	for i, b := range m.Bindings {
		field := fmt.Sprintf("bindings[%d]", i)
		if !ValidAlias(b.Alias) {
			errs.add(field+".alias", "invalid alias %q", b.Alias)
		}
		if _, dup := seen[b.Alias]; dup {
			errs.add(field+".alias", "duplicate alias %q", b.Alias)
		}
		seen[b.Alias] = struct{}{}
		if err := b.Source.Validate(); err != nil {
			errs.add(field+".source", "%v", err)
			continue
		}
		if b.Source == m.OutputDestination {
			errs.add(field+".source", "alias %q reads the output destination %s", b.Alias, b.Source)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
