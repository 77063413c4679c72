package config

import (
	"fmt"
	"time"

	"k8s.io/utils/ptr"
)

// SolverBackend names a solver implementation.
type SolverBackend string

const (
	BackendBranchAndBound SolverBackend = "branch-and-bound"
	BackendCBC            SolverBackend = "cbc"
)

const (
	// DefaultTimeLimit bounds one solve.
	DefaultTimeLimit = 120 * time.Second
	// DefaultBigM is the per-slot serving cap of the linking rows.
	DefaultBigM = 10.0
	// DefaultMIPGap is the relative gap accepted as optimal when none is set.
	DefaultMIPGap = 1e-6
	// DefaultCBCPath is resolved through PATH.
	DefaultCBCPath = "cbc"
)

// SolverSpec configures one solve.
type SolverSpec struct {
	Backend   SolverBackend `mapstructure:"backend" yaml:"backend" json:"backend"`
	TimeLimit time.Duration `mapstructure:"timeLimit" yaml:"timeLimit" json:"timeLimit"`
	BigM      float64       `mapstructure:"bigM" yaml:"bigM" json:"bigM"`
	MIPGap    *float64      `mapstructure:"mipGap" yaml:"mipGap" json:"mipGap,omitempty"`
	NodeLimit int           `mapstructure:"nodeLimit" yaml:"nodeLimit" json:"nodeLimit"`
	CBCPath   string        `mapstructure:"cbcPath" yaml:"cbcPath" json:"cbcPath"`
}

// DefaultSolverSpec returns the embedded backend with the default limits.
func DefaultSolverSpec() *SolverSpec {
	return &SolverSpec{
		Backend:   BackendBranchAndBound,
		TimeLimit: DefaultTimeLimit,
		BigM:      DefaultBigM,
		MIPGap:    ptr.To(DefaultMIPGap),
		CBCPath:   DefaultCBCPath,
	}
}

// Validate checks for invalid configuration values.
func (s *SolverSpec) Validate() error {
	switch s.Backend {
	case BackendBranchAndBound, BackendCBC:
	default:
		return fmt.Errorf("unknown solver backend %q", s.Backend)
	}
	if s.TimeLimit <= 0 {
		return fmt.Errorf("timeLimit must be > 0, got %s", s.TimeLimit)
	}
	if s.BigM <= 0 {
		return fmt.Errorf("bigM must be > 0, got %.2f", s.BigM)
	}
	if s.MIPGap != nil && (*s.MIPGap < 0 || *s.MIPGap >= 1) {
		return fmt.Errorf("mipGap must be in [0, 1), got %g", *s.MIPGap)
	}
	if s.NodeLimit < 0 {
		return fmt.Errorf("nodeLimit must be >= 0, got %d", s.NodeLimit)
	}
	if s.Backend == BackendCBC && s.CBCPath == "" {
		return fmt.Errorf("cbcPath must be set for the %s backend", BackendCBC)
	}
	return nil
}

// Gap returns the relative optimality gap, DefaultMIPGap when unset.
func (s *SolverSpec) Gap() float64 {
	return ptr.Deref(s.MIPGap, DefaultMIPGap)
}

// WithDefaults returns a copy of s with zero fields replaced by defaults. An
// unset MIPGap takes the default; an explicit zero is kept.
func (s SolverSpec) WithDefaults() *SolverSpec {
	d := DefaultSolverSpec()
	if s.Backend == "" {
		s.Backend = d.Backend
	}
	if s.TimeLimit == 0 {
		s.TimeLimit = d.TimeLimit
	}
	if s.BigM == 0 {
		s.BigM = d.BigM
	}
	if s.MIPGap == nil {
		s.MIPGap = d.MIPGap
	} else {
		s.MIPGap = ptr.To(*s.MIPGap)
	}
	if s.CBCPath == "" {
		s.CBCPath = d.CBCPath
	}
	return &s
}
