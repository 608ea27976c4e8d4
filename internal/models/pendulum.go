package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Pendulum is a damped driven pendulum with the angle observed:
//
//	thetadot = omega
//	omegadot = -stiffness*sin(theta) - damping*omega + torque
//
// Parameters are [damping, stiffness] where stiffness = g/L. The control
// channel is the applied torque.
type Pendulum struct{}

func NewPendulum() *Pendulum {
	return &Pendulum{}
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }
func (p *Pendulum) OutputDim() int  { return 1 }
func (p *Pendulum) ParamDim() int   { return 2 }

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) dynamo.State {
	theta := x[0]
	omega := x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}

	return dynamo.State{omega, -par[1]*math.Sin(theta) - par[0]*omega + torque}
}

func (p *Pendulum) Output(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) []float64 {
	return []float64{x[0]}
}

func (p *Pendulum) StateJac(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		0, 1,
		-par[1] * math.Cos(x[0]), -par[0],
	})
}

func (p *Pendulum) OutputJac(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 2, []float64{1, 0})
}

func (p *Pendulum) ParamStateJac(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		0, 0,
		-x[1], -math.Sin(x[0]),
	})
}

func (p *Pendulum) ParamOutputJac(x dynamo.State, u dynamo.Control, par dynamo.Params, w dynamo.Aux) *mat.Dense {
	return mat.NewDense(1, 2, []float64{0, 0})
}

func (p *Pendulum) ParamNames() []string  { return []string{"damping", "stiffness"} }
func (p *Pendulum) OutputNames() []string { return []string{"theta"} }
