package v1alpha1

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scope selects how many days a constraint expression sums over.
type Scope string

const (
	// ScopeDaily applies the constraint to each day separately.
	ScopeDaily Scope = "daily"
	// ScopeWeekly sums over the whole week.
	ScopeWeekly Scope = "weekly"
	// ScopeTotal sums over the whole planning horizon.
	ScopeTotal Scope = "total"
)

// IsValid reports whether s is a known scope.
func (s Scope) IsValid() bool {
	return s == ScopeDaily || s == ScopeWeekly || s == ScopeTotal
}

// Operator compares a constraint expression against its value.
type Operator string

const (
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpRange        Operator = "range"
)

// IsValid reports whether o is a known operator.
func (o Operator) IsValid() bool {
	return o == OpGreaterEqual || o == OpLessEqual || o == OpEqual || o == OpRange
}

// Attribute keys with dedicated constraint semantics.
const (
	AttributeMealBalance       = "meal_balance"
	AttributeFoodGroupCategory = "food_group_category"
	// AttributeDietGuideGroup takes the group from the constraint name.
	AttributeDietGuideGroup = "diet_guide_group"
)

// ValueKind tags the shape held by a ConstraintValue.
type ValueKind int

const (
	ScalarValue ValueKind = iota
	RangeValue
	CategoryValue
)

func (k ValueKind) String() string {
	switch k {
	case ScalarValue:
		return "scalar"
	case RangeValue:
		return "range"
	case CategoryValue:
		return "category"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// ConstraintValue is a scalar, a [min,max] pair or a {category, amount} record.
type ConstraintValue struct {
	Kind     ValueKind
	Scalar   float64
	Min      float64
	Max      float64
	Category string
	Amount   float64
}

// Scalar builds a scalar constraint value.
func Scalar(v float64) ConstraintValue {
	return ConstraintValue{Kind: ScalarValue, Scalar: v}
}

// Range builds a [min,max] constraint value.
func Range(min, max float64) ConstraintValue {
	return ConstraintValue{Kind: RangeValue, Min: min, Max: max}
}

// CategoryAmount builds a {category, amount} constraint value.
func CategoryAmount(category string, amount float64) ConstraintValue {
	return ConstraintValue{Kind: CategoryValue, Category: category, Amount: amount}
}

type categoryValue struct {
	Category string  `json:"category" yaml:"category"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

// UnmarshalYAML accepts `2`, `[280, 320]` or `{category: vegetable, amount: 2}`.
func (v *ConstraintValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("constraint value: %w", err)
		}
		*v = Scalar(f)
	case yaml.SequenceNode:
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("constraint value: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("constraint value: range needs exactly 2 elements, got %d", len(pair))
		}
		*v = Range(pair[0], pair[1])
	case yaml.MappingNode:
		var c categoryValue
		if err := node.Decode(&c); err != nil {
			return fmt.Errorf("constraint value: %w", err)
		}
		*v = CategoryAmount(c.Category, c.Amount)
	default:
		return fmt.Errorf("constraint value: unsupported YAML node at line %d", node.Line)
	}
	return nil
}

// MarshalYAML renders the value in the same shapes UnmarshalYAML accepts.
func (v ConstraintValue) MarshalYAML() (interface{}, error) {
	return v.wireValue(), nil
}

// UnmarshalJSON accepts the same three shapes as UnmarshalYAML.
func (v *ConstraintValue) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Scalar(f)
		return nil
	}
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("constraint value: range needs exactly 2 elements, got %d", len(pair))
		}
		*v = Range(pair[0], pair[1])
		return nil
	}
	var c categoryValue
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("constraint value: %w", err)
	}
	*v = CategoryAmount(c.Category, c.Amount)
	return nil
}

// MarshalJSON renders the value in its wire shape.
func (v ConstraintValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wireValue())
}

func (v ConstraintValue) wireValue() interface{} {
	switch v.Kind {
	case RangeValue:
		return []float64{v.Min, v.Max}
	case CategoryValue:
		return categoryValue{Category: v.Category, Amount: v.Amount}
	default:
		return v.Scalar
	}
}

// Constraint is a hard requirement on the plan.
type Constraint struct {
	// Name labels the constraint; with attribute diet_guide_group it names the group.
	Name string `json:"name" yaml:"name"`

	// Scope is daily, weekly or total.
	Scope Scope `json:"scope" yaml:"scope"`

	// Attribute selects the handler: calories, a food group, meal_balance,
	// food_group_category or any numeric food attribute.
	Attribute string `json:"attribute" yaml:"attribute"`

	// Operator compares the summed expression against Value.
	Operator Operator `json:"operator" yaml:"operator"`

	// Value is a scalar, a [min,max] range or a {category, amount} record.
	Value ConstraintValue `json:"value" yaml:"value"`

	// Weight is reserved for soft-constraint relaxation and ignored by hard constraints.
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

var (
	errEmptyAttribute = errors.New("attribute must not be empty")
	errRangeOperator  = errors.New("operator range requires a [min,max] value")
)

// Bounds returns the interval [lo, hi] an expression must lie in.
// Category values contribute their amount; unbounded sides are infinite.
func (c Constraint) Bounds() (lo, hi float64, err error) {
	target := c.Value.Scalar
	if c.Value.Kind == CategoryValue {
		target = c.Value.Amount
	}
	switch c.Operator {
	case OpGreaterEqual:
		if c.Value.Kind == RangeValue {
			return 0, 0, fmt.Errorf("operator %s needs a scalar value", c.Operator)
		}
		return target, math.Inf(1), nil
	case OpLessEqual:
		if c.Value.Kind == RangeValue {
			return 0, 0, fmt.Errorf("operator %s needs a scalar value", c.Operator)
		}
		return math.Inf(-1), target, nil
	case OpEqual:
		if c.Value.Kind == RangeValue {
			return 0, 0, fmt.Errorf("operator %s needs a scalar value", c.Operator)
		}
		return target, target, nil
	case OpRange:
		if c.Value.Kind != RangeValue {
			return 0, 0, errRangeOperator
		}
		return c.Value.Min, c.Value.Max, nil
	default:
		return 0, 0, fmt.Errorf("unknown operator %q", c.Operator)
	}
}

// Validate checks the constraint's shape. Attribute semantics are checked by
// the model builder.
func (c Constraint) Validate() error {
	if strings.TrimSpace(c.Attribute) == "" {
		return fmt.Errorf("constraint %q: %w", c.Name, errEmptyAttribute)
	}
	if !c.Scope.IsValid() {
		return fmt.Errorf("constraint %q: unknown scope %q", c.Name, c.Scope)
	}
	if !c.Operator.IsValid() {
		return fmt.Errorf("constraint %q: unknown operator %q", c.Name, c.Operator)
	}
	if c.Value.Kind == RangeValue && c.Value.Min > c.Value.Max {
		return fmt.Errorf("constraint %q: range min (%.2f) must be <= max (%.2f)", c.Name, c.Value.Min, c.Value.Max)
	}
	if c.Value.Kind == CategoryValue && strings.TrimSpace(c.Value.Category) == "" {
		return fmt.Errorf("constraint %q: category must not be empty", c.Name)
	}
	if _, _, err := c.Bounds(); err != nil {
		return fmt.Errorf("constraint %q: %w", c.Name, err)
	}
	return nil
}

// Objective is one weighted term of the scalarized objective.
type Objective struct {
	Name      string  `json:"name" yaml:"name"`
	Attribute string  `json:"attribute" yaml:"attribute"`
	Maximize  bool    `json:"maximize" yaml:"maximize"`
	Weight    float64 `json:"weight" yaml:"weight"`
}

// Validate checks the objective's shape.
func (o Objective) Validate() error {
	if strings.TrimSpace(o.Attribute) == "" {
		return fmt.Errorf("objective %q: %w", o.Name, errEmptyAttribute)
	}
	if math.IsNaN(o.Weight) || math.IsInf(o.Weight, 0) {
		return fmt.Errorf("objective %q: weight must be finite", o.Name)
	}
	return nil
}

// RequirementSet is the ordered list of constraints and objectives for one solve.
type RequirementSet struct {
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
	Objectives  []Objective  `json:"objectives" yaml:"objectives"`
}

// AddConstraint appends c.
func (r *RequirementSet) AddConstraint(c Constraint) {
	r.Constraints = append(r.Constraints, c)
}

// AddObjective appends o.
func (r *RequirementSet) AddObjective(o Objective) {
	r.Objectives = append(r.Objectives, o)
}

// Validate validates every declaration, reporting the first failure.
func (r RequirementSet) Validate() error {
	for _, c := range r.Constraints {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, o := range r.Objectives {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}
