// Package sim turns a model, an integrator and an experiment into
// predicted trajectories. Control and auxiliary inputs are held constant
// over each sampling interval (zero-order hold).
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/experiment"
)

type Simulator struct {
	model dynamo.Model
	integ dynamo.Integrator
	exp   *experiment.Experiment
}

func New(model dynamo.Model, integ dynamo.Integrator, exp *experiment.Experiment) *Simulator {
	return &Simulator{model: model, integ: integ, exp: exp}
}

// Outputs simulates the predicted output sequence at parameters p,
// returning a No x Ns matrix.
func (s *Simulator) Outputs(p dynamo.Params) (*mat.Dense, error) {
	_, y, err := s.run(p)
	return y, err
}

// States simulates the state trajectory at parameters p, returning a
// Nd x Ns matrix.
func (s *Simulator) States(p dynamo.Params) (*mat.Dense, error) {
	x, _, err := s.run(p)
	return x, err
}

func (s *Simulator) run(p dynamo.Params) (*mat.Dense, *mat.Dense, error) {
	ns := s.exp.Samples()
	nd := s.model.StateDim()
	no := s.model.OutputDim()

	states := mat.NewDense(nd, ns, nil)
	outputs := mat.NewDense(no, ns, nil)

	x := s.exp.X0.Clone()
	states.SetCol(0, x)
	outputs.SetCol(0, s.model.Output(x, s.exp.ControlAt(0), p, s.exp.AuxAt(0)))

	for i := 0; i < ns-1; i++ {
		u := s.exp.ControlAt(i)
		w := s.exp.AuxAt(i)

		rhs := func(t float64, x dynamo.State) dynamo.State {
			return s.model.Derive(x, u, p, w)
		}

		next, err := s.integ.Integrate(rhs, s.exp.T[i], s.exp.T[i+1], x)
		if err != nil {
			return nil, nil, fmt.Errorf("integrating over [%g, %g]: %w", s.exp.T[i], s.exp.T[i+1], err)
		}

		x = next
		states.SetCol(i+1, x)
		outputs.SetCol(i+1, s.model.Output(x, s.exp.ControlAt(i+1), p, s.exp.AuxAt(i+1)))
	}

	return states, outputs, nil
}
