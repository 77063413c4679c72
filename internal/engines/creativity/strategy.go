package creativity

import (
	"context"
	"fmt"
)

// Strategy is one independent refinement pass over a Session's working plan.
type Strategy interface {
	// Kind identifies the strategy.
	Kind() StrategyKind

	// Apply mutates the session's plan and returns the number of changes made.
	// An empty candidate pool is not an error; the step is a no-op.
	Apply(ctx context.Context, s *Session) int
}

// StrategyKind is an enumeration of the refinement strategies
type StrategyKind int

// enumeration of StrategyKind, in registration order
const (
	SubstitutionStrategy StrategyKind = iota
	ThemingStrategy
	FlavorPairingStrategy
	SurpriseStrategy
)

func (k StrategyKind) String() string {
	switch k {
	case SubstitutionStrategy:
		return "substitution"
	case ThemingStrategy:
		return "theming"
	case FlavorPairingStrategy:
		return "flavor-pairing"
	case SurpriseStrategy:
		return "surprise"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// StrategyKinds lists every strategy in registration order.
var StrategyKinds = []StrategyKind{
	SubstitutionStrategy,
	ThemingStrategy,
	FlavorPairingStrategy,
	SurpriseStrategy,
}

// NewStrategy is a factory that creates a Strategy of the given kind
func NewStrategy(kind StrategyKind) (Strategy, error) {
	switch kind {
	case SubstitutionStrategy:
		return &Substitution{}, nil
	case ThemingStrategy:
		return &Theming{Themes: DefaultThemes()}, nil
	case FlavorPairingStrategy:
		return &FlavorPairing{Principles: DefaultFlavorPrinciples()}, nil
	case SurpriseStrategy:
		return &Surprise{}, nil
	default:
		return nil, fmt.Errorf("unsupported creativity strategy: %v", kind)
	}
}
