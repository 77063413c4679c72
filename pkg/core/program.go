package core

import (
	"fmt"
	"math"
	"sort"
)

// VarKind is the domain of a decision variable.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// IsIntegral reports whether values of this kind must be whole numbers.
func (k VarKind) IsIntegral() bool {
	return k == Integer || k == Binary
}

// Var is the index of a variable in its Program.
type Var int

// VarDef describes one variable.
type VarDef struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Sense is the comparison a row enforces.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term is one coefficient of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// LinExpr is a sparse linear expression plus a constant.
type LinExpr struct {
	Terms    []Term
	Constant float64
}

// NewExpr returns an empty expression.
func NewExpr() *LinExpr {
	return &LinExpr{}
}

// Add appends coef·v and returns e for chaining. Zero coefficients are dropped.
func (e *LinExpr) Add(v Var, coef float64) *LinExpr {
	if coef != 0 {
		e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	}
	return e
}

// AddConstant adds c to the constant offset.
func (e *LinExpr) AddConstant(c float64) *LinExpr {
	e.Constant += c
	return e
}

// AddExpr adds scale·o to e.
func (e *LinExpr) AddExpr(o *LinExpr, scale float64) *LinExpr {
	if o == nil || scale == 0 {
		return e
	}
	for _, t := range o.Terms {
		e.Add(t.Var, t.Coef*scale)
	}
	e.Constant += o.Constant * scale
	return e
}

// Len returns the number of stored terms.
func (e *LinExpr) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Terms)
}

// Normalize merges duplicate variables, drops zero coefficients and sorts
// terms by variable.
func (e *LinExpr) Normalize() *LinExpr {
	if len(e.Terms) < 2 {
		return e
	}
	sum := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		sum[t.Var] += t.Coef
	}
	terms := make([]Term, 0, len(sum))
	for v, c := range sum {
		if c != 0 {
			terms = append(terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Var < terms[j].Var })
	e.Terms = terms
	return e
}

// Eval evaluates the expression at values, indexed by Var.
func (e *LinExpr) Eval(values []float64) float64 {
	if e == nil {
		return 0
	}
	total := e.Constant
	for _, t := range e.Terms {
		total += t.Coef * values[t.Var]
	}
	return total
}

// Clone returns a deep copy of e.
func (e *LinExpr) Clone() *LinExpr {
	if e == nil {
		return NewExpr()
	}
	out := &LinExpr{Constant: e.Constant, Terms: make([]Term, len(e.Terms))}
	copy(out.Terms, e.Terms)
	return out
}

// Row is a named linear comparison: Expr <Sense> RHS.
type Row struct {
	Name  string
	Expr  *LinExpr
	Sense Sense
	RHS   float64
}

// Activity evaluates the row expression at values.
func (r Row) Activity(values []float64) float64 {
	return r.Expr.Eval(values)
}

// Satisfied reports whether values meet the row within tol.
func (r Row) Satisfied(values []float64, tol float64) bool {
	a := r.Activity(values)
	switch r.Sense {
	case LessEqual:
		return a <= r.RHS+tol
	case GreaterEqual:
		return a >= r.RHS-tol
	default:
		return math.Abs(a-r.RHS) <= tol
	}
}

// Program is a minimization problem over bounded variables.
type Program struct {
	vars      []VarDef
	rows      []Row
	objective *LinExpr
}

// NewProgram returns an empty program with a zero objective.
func NewProgram() *Program {
	return &Program{objective: NewExpr()}
}

// AddVar adds a variable and returns its handle. Binary variables are
// clamped to [0,1].
func (p *Program) AddVar(name string, kind VarKind, lower, upper float64) Var {
	if kind == Binary {
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	}
	p.vars = append(p.vars, VarDef{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return Var(len(p.vars) - 1)
}

// AddRow appends a row. The expression is normalized and owned by the program afterwards.
func (p *Program) AddRow(name string, expr *LinExpr, sense Sense, rhs float64) {
	if expr == nil {
		expr = NewExpr()
	}
	p.rows = append(p.rows, Row{Name: name, Expr: expr.Normalize(), Sense: sense, RHS: rhs})
}

// AddRange adds the rows lo <= expr <= hi, skipping infinite sides. When lo
// equals hi a single equality row is added.
func (p *Program) AddRange(name string, expr *LinExpr, lo, hi float64) {
	switch {
	case lo == hi:
		p.AddRow(name, expr, Equal, lo)
		return
	case !math.IsInf(lo, -1) && !math.IsInf(hi, 1):
		p.AddRow(name+"_min", expr.Clone(), GreaterEqual, lo)
		p.AddRow(name+"_max", expr, LessEqual, hi)
	case !math.IsInf(lo, -1):
		p.AddRow(name, expr, GreaterEqual, lo)
	case !math.IsInf(hi, 1):
		p.AddRow(name, expr, LessEqual, hi)
	}
}

// SetObjective replaces the objective.
func (p *Program) SetObjective(expr *LinExpr) {
	if expr == nil {
		expr = NewExpr()
	}
	p.objective = expr.Normalize()
}

// Objective returns the objective expression.
func (p *Program) Objective() *LinExpr { return p.objective }

// NumVars returns the number of variables.
func (p *Program) NumVars() int { return len(p.vars) }

// NumRows returns the number of rows.
func (p *Program) NumRows() int { return len(p.rows) }

// VarDef returns the definition of v.
func (p *Program) VarDef(v Var) VarDef { return p.vars[v] }

// Vars returns the variable definitions. Callers must not modify the slice.
func (p *Program) Vars() []VarDef { return p.vars }

// Rows returns the rows. Callers must not modify the slice.
func (p *Program) Rows() []Row { return p.rows }

// Violation describes a row or bound a candidate assignment breaks.
type Violation struct {
	Name     string
	Activity float64
	Sense    Sense
	RHS      float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %.4g %s %.4g", v.Name, v.Activity, v.Sense, v.RHS)
}

// Check evaluates values against every bound, integrality requirement and
// row, returning the violations found.
func (p *Program) Check(values []float64, tol float64) []Violation {
	if len(values) != len(p.vars) {
		return []Violation{{Name: fmt.Sprintf("expected %d values, got %d", len(p.vars), len(values))}}
	}
	var out []Violation
	for i, d := range p.vars {
		x := values[i]
		if x < d.Lower-tol {
			out = append(out, Violation{Name: d.Name + "_lb", Activity: x, Sense: GreaterEqual, RHS: d.Lower})
		}
		if x > d.Upper+tol {
			out = append(out, Violation{Name: d.Name + "_ub", Activity: x, Sense: LessEqual, RHS: d.Upper})
		}
		if d.Kind.IsIntegral() && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Name: d.Name + "_int", Activity: x, Sense: Equal, RHS: math.Round(x)})
		}
	}
	for _, r := range p.rows {
		if !r.Satisfied(values, tol) {
			out = append(out, Violation{Name: r.Name, Activity: r.Activity(values), Sense: r.Sense, RHS: r.RHS})
		}
	}
	return out
}
