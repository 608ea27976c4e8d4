package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Decay is first-order exponential decay xdot = -rate*x with the state
// observed directly. The single parameter is the decay rate.
type Decay struct{}

func NewDecay() *Decay {
	return &Decay{}
}

func (d *Decay) StateDim() int   { return 1 }
func (d *Decay) ControlDim() int { return 0 }
func (d *Decay) OutputDim() int  { return 1 }
func (d *Decay) ParamDim() int   { return 1 }

func (d *Decay) Derive(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) dynamo.State {
	return dynamo.State{-p[0] * x[0]}
}

func (d *Decay) Output(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) []float64 {
	return []float64{x[0]}
}

func (d *Decay) StateJac(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-p[0]})
}

func (d *Decay) OutputJac(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 1, []float64{1})
}

func (d *Decay) ParamStateJac(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-x[0]})
}

func (d *Decay) ParamOutputJac(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 1, []float64{0})
}

func (d *Decay) ParamNames() []string  { return []string{"rate"} }
func (d *Decay) OutputNames() []string { return []string{"x"} }
