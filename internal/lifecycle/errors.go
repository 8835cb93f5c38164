package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/downpricer/downpricer/internal/validation"
)

// Sentinels matched via errors.Is regardless of the concrete error value.
var (
	ErrValidation     = errors.New("validation failed")
	ErrGuardViolation = errors.New("guard violation")
)

// ValidationError reports malformed or missing mandatory input.
// Violations names each offending field and the rule it broke; the caller
// is told exactly which rule failed, never a generic message.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, rule := range e.Violations {
		fields = append(fields, f+"="+rule)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// invalid builds a ValidationError from accumulated violations,
// or nil when the set is empty.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// GuardViolation reports a transition attempted from an incompatible
// current state.
type GuardViolation struct {
	Entity string // "demande" or "sale"
	Action string
	From   string
}

func (e *GuardViolation) Error() string {
	return fmt.Sprintf("%s: cannot %s from status %s", e.Entity, e.Action, e.From)
}

func (e *GuardViolation) Is(target error) bool { return target == ErrGuardViolation }
