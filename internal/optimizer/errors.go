package optimizer

import (
	"errors"
	"fmt"

	"github.com/llm-d/llm-d-meal-planner/pkg/solver"
)

var (
	// ErrUnhandledConstraintKind is returned when a constraint attribute has no handler.
	ErrUnhandledConstraintKind = errors.New("unhandled constraint kind")
	// ErrUnhandledObjectiveKind is returned when an objective attribute has no handler.
	ErrUnhandledObjectiveKind = errors.New("unhandled objective kind")
	// ErrInvalidConstraint is returned when a constraint is malformed for its kind.
	ErrInvalidConstraint = errors.New("invalid constraint")
	// ErrNoOptimalSolution is returned when the solver ends without proving optimality.
	ErrNoOptimalSolution = errors.New("no optimal solution")
)

// NoOptimalSolutionError carries the solver status of a failed solve.
type NoOptimalSolutionError struct {
	Status solver.Status
}

func (e *NoOptimalSolutionError) Error() string {
	return fmt.Sprintf("%s: solver status %s", ErrNoOptimalSolution, e.Status)
}

// Unwrap makes errors.Is(err, ErrNoOptimalSolution) hold.
func (e *NoOptimalSolutionError) Unwrap() error {
	return ErrNoOptimalSolution
}

// ErrorPolicy selects what happens to a declaration the model cannot use.
type ErrorPolicy string

const (
	// PolicyFailFast aborts the build.
	PolicyFailFast ErrorPolicy = "fail-fast"
	// PolicyBestEffort drops the declaration and records a warning.
	PolicyBestEffort ErrorPolicy = "best-effort"
)

// IsValid reports whether p is a known policy.
func (p ErrorPolicy) IsValid() bool {
	return p == PolicyFailFast || p == PolicyBestEffort
}
