package estimate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Mode selects how output-to-parameter sensitivities are computed.
type Mode int

const (
	// ModeNumerical uses central finite differences. Always available.
	ModeNumerical Mode = iota
	// ModeAnalytic integrates the variational equations along the
	// simulated nominal trajectory. Requires model Jacobians.
	ModeAnalytic
	// ModeBootstrap is ModeAnalytic with the linearization trajectory
	// seeded from measurements through the output-to-state map, so the
	// first iteration does not have to trust the initial guess.
	ModeBootstrap
)

func (m Mode) String() string {
	switch m {
	case ModeNumerical:
		return "numerical"
	case ModeAnalytic:
		return "analytic"
	case ModeBootstrap:
		return "bootstrap"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// sensitivity computes the sensitivity tensor at parameters p: one
// OutputDim x ParamDim slice per sample.
func (e *Estimator) sensitivity(p dynamo.Params, mode Mode) ([]*mat.Dense, error) {
	switch mode {
	case ModeNumerical:
		return e.numericalSensitivity(p)

	case ModeAnalytic:
		jac, ok := e.model.(dynamo.Jacobians)
		if !ok {
			return nil, fmt.Errorf("%w: analytic sensitivities require model Jacobians", dynamo.ErrUsage)
		}
		x, err := e.sim.States(p)
		if err != nil {
			return nil, err
		}
		return e.variational(jac, p, x)

	case ModeBootstrap:
		jac, ok := e.model.(dynamo.Jacobians)
		if !ok {
			return nil, fmt.Errorf("%w: bootstrap sensitivities require model Jacobians", dynamo.ErrUsage)
		}
		if e.outputMap == nil {
			return nil, fmt.Errorf("%w: bootstrap sensitivities require an output-to-state map", dynamo.ErrUsage)
		}
		x, err := e.sim.States(p)
		if err != nil {
			return nil, err
		}
		e.seedFromMeasurements(x)
		return e.variational(jac, p, x)

	default:
		return nil, fmt.Errorf("%w: unknown sensitivity mode %d", dynamo.ErrUsage, int(mode))
	}
}

// numericalSensitivity runs 2*Np perturbed simulations and forms central
// differences. Each parameter's pair is independent, so the work is
// spread across CPUs; every goroutine writes a disjoint column of the
// shared slices.
func (e *Estimator) numericalSensitivity(p dynamo.Params) ([]*mat.Dense, error) {
	ns := e.exp.Samples()
	no := e.model.OutputDim()
	np := len(p)

	s := make([]*mat.Dense, ns)
	for i := range s {
		s[i] = mat.NewDense(no, np, nil)
	}

	errs := make([]error, np)
	dynamo.ParallelFor(np, 1, func(start, end int) {
		for j := start; j < end; j++ {
			delta := 1e-3 * math.Abs(p[j])
			if p[j] == 0 {
				delta = 1e-6
			}

			plus := p.Clone()
			minus := p.Clone()
			plus[j] += delta
			minus[j] -= delta

			yp, err := e.sim.Outputs(plus)
			if err != nil {
				errs[j] = err
				continue
			}
			ym, err := e.sim.Outputs(minus)
			if err != nil {
				errs[j] = err
				continue
			}

			inv := 1.0 / (2 * delta)
			for i := 0; i < ns; i++ {
				for k := 0; k < no; k++ {
					s[i].Set(k, j, (yp.At(k, i)-ym.At(k, i))*inv)
				}
			}
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// variational integrates, per parameter, the sensitivity dynamics
//
//	d/dt s_j = (df/dx) s_j + (df/dp)[:,j]
//
// with zero initial condition, alongside the state itself: over each
// sampling interval the state restarts from the linearization trajectory
// x, so a measurement-seeded trajectory (bootstrap) drives the
// linearization instead of the simulated one. Outputs compose as
// dy/dp_j = (dh/dx) s_j + (dh/dp)[:,j]; at the first sample only the
// direct dh/dp term contributes.
func (e *Estimator) variational(jac dynamo.Jacobians, p dynamo.Params, x *mat.Dense) ([]*mat.Dense, error) {
	ns := e.exp.Samples()
	nd := e.model.StateDim()
	no := e.model.OutputDim()
	np := len(p)

	s := make([]*mat.Dense, ns)

	x0 := stateAt(x, 0)
	s[0] = mat.DenseCopyOf(jac.ParamOutputJac(x0, e.exp.ControlAt(0), p, e.exp.AuxAt(0)))

	// Running state sensitivities, one vector per parameter.
	sens := make([]dynamo.State, np)
	for j := range sens {
		sens[j] = make(dynamo.State, nd)
	}

	for i := 1; i < ns; i++ {
		xPrev := stateAt(x, i-1)
		uPrev := e.exp.ControlAt(i - 1)
		wPrev := e.exp.AuxAt(i - 1)

		for j := 0; j < np; j++ {
			col := j
			// Augmented vector: state in the first nd slots, the
			// parameter's state sensitivity in the rest.
			rhs := func(t float64, aug dynamo.State) dynamo.State {
				xv := dynamo.State(aug[:nd])
				sv := aug[nd:]

				fx := jac.StateJac(xv, uPrev, p, wPrev)
				fp := jac.ParamStateJac(xv, uPrev, p, wPrev)
				dx := e.model.Derive(xv, uPrev, p, wPrev)

				out := make(dynamo.State, 2*nd)
				copy(out, dx)
				for a := 0; a < nd; a++ {
					sum := fp.At(a, col)
					for b := 0; b < nd; b++ {
						sum += fx.At(a, b) * sv[b]
					}
					out[nd+a] = sum
				}
				return out
			}

			aug := make(dynamo.State, 2*nd)
			copy(aug, xPrev)
			copy(aug[nd:], sens[j])

			next, err := e.integ.Integrate(rhs, e.exp.T[i-1], e.exp.T[i], aug)
			if err != nil {
				return nil, fmt.Errorf("variational equation for parameter %d: %w", j, err)
			}
			sens[j] = next[nd:]
		}

		xi := stateAt(x, i)
		ui := e.exp.ControlAt(i)
		wi := e.exp.AuxAt(i)

		hx := jac.OutputJac(xi, ui, p, wi)
		hp := jac.ParamOutputJac(xi, ui, p, wi)

		si := mat.NewDense(no, np, nil)
		for k := 0; k < no; k++ {
			for j := 0; j < np; j++ {
				sum := hp.At(k, j)
				for b := 0; b < nd; b++ {
					sum += hx.At(k, b) * sens[j][b]
				}
				si.Set(k, j, sum)
			}
		}
		s[i] = si
	}

	return s, nil
}

// seedFromMeasurements overwrites the simulated linearization trajectory
// with A*z for every state covered by a nonzero row of the output map.
// States with all-zero rows keep their simulated values: unobserved
// states still need the model to fill them in.
func (e *Estimator) seedFromMeasurements(x *mat.Dense) {
	var az mat.Dense
	az.Mul(e.outputMap, e.exp.Z)

	nd, no := e.outputMap.Dims()
	_, ns := x.Dims()

	for r := 0; r < nd; r++ {
		observed := false
		for c := 0; c < no; c++ {
			if e.outputMap.At(r, c) != 0 {
				observed = true
				break
			}
		}
		if !observed {
			continue
		}
		for i := 0; i < ns; i++ {
			x.Set(r, i, az.At(r, i))
		}
	}
}

func stateAt(x *mat.Dense, i int) dynamo.State {
	rows, _ := x.Dims()
	s := make(dynamo.State, rows)
	for r := 0; r < rows; r++ {
		s[r] = x.At(r, i)
	}
	return s
}
