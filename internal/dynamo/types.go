package dynamo

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

type Aux []float64

// Params is a model parameter vector, the estimand of a fit.
type Params []float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	copy(c, p)
	return c
}

func (p Params) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Model describes a parametric continuous-time system: a state equation
// xdot = Derive(x, u, p, w) and an output equation y = Output(x, u, p, w).
// Implementations must be pure: no retained state across calls.
type Model interface {
	Derive(x State, u Control, p Params, w Aux) State
	Output(x State, u Control, p Params, w Aux) []float64
	StateDim() int
	ControlDim() int
	OutputDim() int
	ParamDim() int
}

// Jacobians is an optional capability of a Model. A model provides either
// all four partial derivatives or none; providing them enables the
// analytic sensitivity path of the estimator.
type Jacobians interface {
	// StateJac is df/dx, StateDim x StateDim.
	StateJac(x State, u Control, p Params, w Aux) *mat.Dense
	// OutputJac is dh/dx, OutputDim x StateDim.
	OutputJac(x State, u Control, p Params, w Aux) *mat.Dense
	// ParamStateJac is df/dp, StateDim x ParamDim.
	ParamStateJac(x State, u Control, p Params, w Aux) *mat.Dense
	// ParamOutputJac is dh/dp, OutputDim x ParamDim.
	ParamOutputJac(x State, u Control, p Params, w Aux) *mat.Dense
}

// HasJacobians reports whether m supplies analytic Jacobians.
func HasJacobians(m Model) bool {
	_, ok := m.(Jacobians)
	return ok
}

// Named is an optional capability providing display names. Cosmetic only.
type Named interface {
	ParamNames() []string
	OutputNames() []string
}

// RHS is a time-varying vector field.
type RHS func(t float64, x State) State

// Integrator advances an initial value problem from one time to another.
// Implementations control their own step size; callers only observe the
// state at the interval's end.
type Integrator interface {
	Integrate(rhs RHS, from, to float64, x0 State) (State, error)
}
