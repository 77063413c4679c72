package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

var (
	// ErrNumericalFailure is returned when the LP relaxation cannot be solved reliably.
	ErrNumericalFailure = errors.New("numerical failure in LP relaxation")
	// ErrSolverUnavailable is returned when an external solver binary cannot be found or run.
	ErrSolverUnavailable = errors.New("solver not available")
)

// Status is the outcome of a solve.
type Status int

const (
	NotSolved Status = iota
	Optimal
	Infeasible
	Unbounded
	TimeLimit
	NodeLimit
	Error
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "NotSolved"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case TimeLimit:
		return "TimeLimit"
	case NodeLimit:
		return "NodeLimit"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what a solver returns. Values is set only for Optimal results.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	Elapsed   time.Duration
}

// Solver solves a program under the limits it was built with.
type Solver interface {
	// Name returns the backend name.
	Name() string

	// Solve blocks until the program is solved, proven infeasible or a limit is hit.
	Solve(ctx context.Context, p *core.Program) (*Result, error)
}

// NewSolverFromSpec is a factory that creates a Solver for the SolverSpec backend.
func NewSolverFromSpec(spec *config.SolverSpec) (Solver, error) {
	if spec == nil {
		spec = config.DefaultSolverSpec()
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver spec: %w", err)
	}
	switch spec.Backend {
	case config.BackendBranchAndBound:
		return NewBranchAndBound(spec), nil
	case config.BackendCBC:
		return NewCBC(spec), nil
	default:
		return nil, fmt.Errorf("unsupported solver backend: %v", spec.Backend)
	}
}
