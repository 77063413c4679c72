package solver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

// commandRunner runs an external command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CBC drives the COIN-OR CBC command line solver through LP files.
type CBC struct {
	spec     *config.SolverSpec
	run      commandRunner
	lookPath func(string) (string, error)
}

// NewCBC creates a CBC solver bounded by spec.
func NewCBC(spec *config.SolverSpec) *CBC {
	if spec == nil {
		spec = config.DefaultSolverSpec()
	}
	return &CBC{spec: spec, run: execRunner, lookPath: exec.LookPath}
}

// Name returns the backend name.
func (s *CBC) Name() string {
	return string(config.BackendCBC)
}

// Solve writes p as an LP file, runs cbc on it and reads back the solution file.
func (s *CBC) Solve(ctx context.Context, p *core.Program) (*Result, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	bin, err := s.lookPath(s.spec.CBCPath)
	if err != nil {
		return &Result{Status: Error}, fmt.Errorf("%w: %s: %v", ErrSolverUnavailable, s.spec.CBCPath, err)
	}

	dir, err := os.MkdirTemp("", "mealplan-cbc-")
	if err != nil {
		return &Result{Status: Error}, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	modelPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	f, err := os.Create(modelPath)
	if err != nil {
		return &Result{Status: Error}, fmt.Errorf("failed to create model file: %w", err)
	}
	if err := WriteLP(f, p); err != nil {
		_ = f.Close()
		return &Result{Status: Error}, fmt.Errorf("failed to write model: %w", err)
	}
	if err := f.Close(); err != nil {
		return &Result{Status: Error}, fmt.Errorf("failed to write model: %w", err)
	}

	// Allow the process a little longer than its own limit to write the solution.
	runCtx, cancel := context.WithTimeout(ctx, s.spec.TimeLimit+10*time.Second)
	defer cancel()

	args := []string{
		modelPath,
		"sec", strconv.FormatFloat(math.Ceil(s.spec.TimeLimit.Seconds()), 'f', 0, 64),
		"ratio", strconv.FormatFloat(s.spec.Gap(), 'g', -1, 64),
	}
	if s.spec.NodeLimit > 0 {
		args = append(args, "maxN", strconv.Itoa(s.spec.NodeLimit))
	}
	args = append(args, "solve", "solu", solPath)

	logger.V(logging.DEBUG).Info("Running cbc", "binary", bin, "vars", p.NumVars(), "rows", p.NumRows())
	out, err := s.run(runCtx, bin, args...)
	if err != nil {
		if runCtx.Err() != nil {
			return &Result{Status: TimeLimit, Elapsed: time.Since(start)}, nil
		}
		return &Result{Status: Error}, fmt.Errorf("cbc failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	sol, err := os.Open(solPath)
	if err != nil {
		return &Result{Status: Error}, fmt.Errorf("cbc wrote no solution file: %w", err)
	}
	defer func() { _ = sol.Close() }()

	res, err := ParseSolution(sol, p.NumVars())
	if err != nil {
		return &Result{Status: Error}, err
	}
	res.Elapsed = time.Since(start)
	if res.Status == Optimal {
		res.Objective = p.Objective().Eval(res.Values)
	} else {
		res.Values = nil
	}
	return res, nil
}

// varName and rowName give LP-format identifiers; user names may contain
// characters the format rejects.
func varName(v core.Var) string { return "x" + strconv.Itoa(int(v)) }
func rowName(i int) string      { return "r" + strconv.Itoa(i) }

func lpSense(s core.Sense) string {
	if s == core.Equal {
		return "="
	}
	return s.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeExpr(w *bufio.Writer, e *core.LinExpr) {
	if e.Len() == 0 {
		_, _ = w.WriteString(" 0 " + varName(0))
		return
	}
	for _, t := range e.Terms {
		sign := "+"
		coef := t.Coef
		if coef < 0 {
			sign, coef = "-", -coef
		}
		_, _ = fmt.Fprintf(w, " %s %s %s", sign, formatFloat(coef), varName(t.Var))
	}
}

// WriteLP writes p in CPLEX LP format. Expression constants are moved to the
// right-hand side; the objective constant is dropped.
func WriteLP(out io.Writer, p *core.Program) error {
	if p.NumVars() == 0 {
		return errors.New("program has no variables")
	}
	w := bufio.NewWriter(out)
	_, _ = w.WriteString("\\ meal plan model\nMinimize\n obj:")
	writeExpr(w, p.Objective())
	_, _ = w.WriteString("\nSubject To\n")
	for i, r := range p.Rows() {
		_, _ = fmt.Fprintf(w, " %s:", rowName(i))
		writeExpr(w, r.Expr)
		_, _ = fmt.Fprintf(w, " %s %s\n", lpSense(r.Sense), formatFloat(r.RHS-r.Expr.Constant))
	}

	_, _ = w.WriteString("Bounds\n")
	var general, binary []string
	for i, d := range p.Vars() {
		name := varName(core.Var(i))
		switch d.Kind {
		case core.Binary:
			binary = append(binary, name)
			continue
		case core.Integer:
			general = append(general, name)
		}
		switch {
		case math.IsInf(d.Upper, 1) && d.Lower == 0:
		case math.IsInf(d.Upper, 1):
			_, _ = fmt.Fprintf(w, " %s >= %s\n", name, formatFloat(d.Lower))
		default:
			_, _ = fmt.Fprintf(w, " %s <= %s <= %s\n", formatFloat(d.Lower), name, formatFloat(d.Upper))
		}
	}
	if len(general) > 0 {
		_, _ = w.WriteString("General\n " + strings.Join(general, " ") + "\n")
	}
	if len(binary) > 0 {
		_, _ = w.WriteString("Binary\n " + strings.Join(binary, " ") + "\n")
	}
	_, _ = w.WriteString("End\n")
	return w.Flush()
}

// ParseSolution reads a cbc solution file. Variables absent from the file are zero.
func ParseSolution(in io.Reader, numVars int) (*Result, error) {
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read solution: %w", err)
		}
		return nil, errors.New("empty solution file")
	}
	res := &Result{Status: parseStatus(sc.Text()), Values: make([]float64, numVars)}

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		name := fields[1]
		if !strings.HasPrefix(name, "x") {
			continue
		}
		idx, err := strconv.Atoi(name[1:])
		if err != nil || idx < 0 || idx >= numVars {
			return nil, fmt.Errorf("unknown variable %q in solution", name)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		res.Values[idx] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read solution: %w", err)
	}
	return res, nil
}

func parseStatus(line string) Status {
	l := strings.ToLower(strings.TrimSpace(line))
	switch {
	case strings.HasPrefix(l, "optimal"):
		return Optimal
	case strings.Contains(l, "infeasible"):
		return Infeasible
	case strings.Contains(l, "unbounded"):
		return Unbounded
	case strings.HasPrefix(l, "stopped on time"):
		return TimeLimit
	case strings.HasPrefix(l, "stopped on nodes"), strings.HasPrefix(l, "stopped on iterations"):
		return NodeLimit
	default:
		return Error
	}
}
