package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an invalid model or harness configuration:
	// unknown trace, dangling key reference, non-positive slot length.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvariantViolation marks a cost relation that a decision algorithm
	// or solver under evaluation failed to honor.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrExternalAlgorithm marks a failure of the decision algorithm service.
	ErrExternalAlgorithm = errors.New("external algorithm error")
)

// InvariantViolation records a violated cost relation Value <Relation> Bound.
type InvariantViolation struct {
	Slot     int     // time slot, negative when not tied to a slot
	Subject  string  // who produced the value, e.g. a solver name
	Quantity string  // name of the checked value
	Value    float64 // checked value
	Relation string  // ">=" or "<="
	Bound    float64 // value it is checked against
	BoundOf  string  // name of the bound
}

func (e *InvariantViolation) Error() string {
	where := ""
	if e.Slot >= 0 {
		where = fmt.Sprintf("slot %d: ", e.Slot)
	}
	if e.Subject != "" {
		where += e.Subject + ": "
	}
	return fmt.Sprintf("%s: %s%s = %v, expected %s %s = %v",
		ErrInvariantViolation, where, e.Quantity, e.Value, e.Relation, e.BoundOf, e.Bound)
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariantViolation
}

// wrap an error as a configuration error
func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
