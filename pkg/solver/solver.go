package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrSolverUnavailable = errors.New("solver unavailable")
	ErrInfeasible        = errors.New("model infeasible")
	ErrTimeout           = errors.New("solver time limit hit")
)

type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

type Var struct {
	Name string
	Kind VarKind
	Lo   float64
	Hi   float64
	Obj  float64
}

type Term struct {
	Var  int
	Coef float64
}

// Constr is lo <= terms <= hi, use +-Inf for one-sided rows.
type Constr struct {
	Name  string
	Terms []Term
	Lo    float64
	Hi    float64
}

// Model is a minimization program over continuous, integer and binary
// variables with linear constraints.
type Model struct {
	Vars    []Var
	Constrs []Constr
}

func NewModel() *Model {
	return &Model{}
}

func (m *Model) AddVar(name string, kind VarKind, lo, hi, obj float64) int {
	if kind == Binary {
		lo, hi = 0, 1
	}
	m.Vars = append(m.Vars, Var{Name: name, Kind: kind, Lo: lo, Hi: hi, Obj: obj})
	return len(m.Vars) - 1
}

func (m *Model) AddObj(v int, coef float64) {
	m.Vars[v].Obj += coef
}

func (m *Model) AddConstr(name string, terms []Term, lo, hi float64) {
	m.Constrs = append(m.Constrs, Constr{Name: name, Terms: terms, Lo: lo, Hi: hi})
}

func (m *Model) AddLE(name string, terms []Term, hi float64) {
	m.AddConstr(name, terms, math.Inf(-1), hi)
}

func (m *Model) AddGE(name string, terms []Term, lo float64) {
	m.AddConstr(name, terms, lo, math.Inf(1))
}

func (m *Model) AddEQ(name string, terms []Term, v float64) {
	m.AddConstr(name, terms, v, v)
}

type Status int

const (
	Optimal Status = iota
	Feasible
	Infeasible
	TimedOut
)

type Result struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Solver minimizes a linear objective subject to linear constraints. The
// back-ends are external, only this capability surface is relied on.
type Solver interface {
	Solve(ctx context.Context, m *Model, timeLim time.Duration) (*Result, error)
}

// New resolves a solver by its configured identifier.
func New(solverStr string) (Solver, error) {
	switch solverStr {
	case "", "glpk":
		return &glpsolSolver{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown back-end %q", ErrSolverUnavailable, solverStr)
	}
}
