package models

import (
	"github.com/san-kum/sysid/internal/dynamo"
)

// SpringMass is a forced mass-spring-damper with the position observed.
// Parameters are [mass, stiffness, damping]. It deliberately supplies no
// Jacobians, so fits against it exercise the finite-difference
// sensitivity path end to end.
type SpringMass struct{}

func NewSpringMass() *SpringMass {
	return &SpringMass{}
}

func (s *SpringMass) StateDim() int   { return 2 }
func (s *SpringMass) ControlDim() int { return 1 }
func (s *SpringMass) OutputDim() int  { return 1 }
func (s *SpringMass) ParamDim() int   { return 3 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) dynamo.State {
	pos := x[0]
	vel := x[1]

	force := 0.0
	if len(u) > 0 {
		force = u[0]
	}

	return dynamo.State{vel, (force - p[1]*pos - p[2]*vel) / p[0]}
}

func (s *SpringMass) Output(x dynamo.State, u dynamo.Control, p dynamo.Params, w dynamo.Aux) []float64 {
	return []float64{x[0]}
}

func (s *SpringMass) ParamNames() []string  { return []string{"mass", "stiffness", "damping"} }
func (s *SpringMass) OutputNames() []string { return []string{"pos"} }
