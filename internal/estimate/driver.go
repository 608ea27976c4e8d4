package estimate

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// iterState is the mutable state of one estimation run. It is created in
// Run, owned exclusively by the driver, and discarded when the loop
// terminates; nothing survives between separate runs.
type iterState struct {
	p    dynamo.Params
	y    *mat.Dense
	r    *mat.DiagDense
	cost float64

	params []dynamo.Params
	costs  []float64
}

func (s *iterState) record() {
	s.params = append(s.params, s.p.Clone())
	s.costs = append(s.costs, s.cost)
}

type innerOutcome int

const (
	innerTolReached innerOutcome = iota
	innerStalled
	innerCapped
)

// Run estimates the model parameters starting from guess. It returns the
// final estimate together with the Fisher information matrix and the
// noise covariance. Iteration-cap exhaustion is non-fatal: the best
// estimate so far is returned with a structured warning. Non-finite
// parameters abort the run.
func (e *Estimator) Run(ctx context.Context, guess dynamo.Params) (*Result, error) {
	if len(guess) != e.model.ParamDim() {
		return nil, fmt.Errorf("%w: guess has %d parameters, model has %d",
			dynamo.ErrConfig, len(guess), e.model.ParamDim())
	}
	if !guess.IsValid() {
		return nil, fmt.Errorf("%w: initial guess is non-finite", dynamo.ErrConfig)
	}

	st := &iterState{p: guess.Clone()}

	y, err := e.sim.Outputs(st.p)
	if err != nil {
		return nil, err
	}
	st.y = y
	st.r = Covariance(e.exp.Z, y)
	st.cost = e.cost(st.r, y, st.p)
	st.record()

	var warnings []Warning
	reason := ReasonOuterCap
	done := false

	for outer := 0; outer < e.maxOuter && !done; outer++ {
		costPrev := st.cost
		rPrev := mat.NewDiagDense(st.r.Diag(), nil)
		for k := 0; k < st.r.Diag(); k++ {
			rPrev.SetDiag(k, st.r.At(k, k))
		}

		outcome, err := e.innerLoop(ctx, st, outer)
		if err != nil {
			return nil, err
		}

		// Refresh the noise estimate at the inner loop's final parameters.
		y, err := e.sim.Outputs(st.p)
		if err != nil {
			return nil, err
		}
		st.y = y
		st.r = Covariance(e.exp.Z, y)
		st.cost = e.cost(st.r, y, st.p)

		switch outcome {
		case innerStalled:
			reason = ReasonStalled
			done = true
		case innerCapped:
			warnings = append(warnings, Warning{
				Kind:    WarnInnerCap,
				Message: fmt.Sprintf("inner loop hit %d iterations in outer pass %d", e.maxInner, outer),
			})
			reason = ReasonInnerCap
			done = true
		default:
			if e.outerConverged(st.cost, costPrev, st.r, rPrev) {
				reason = ReasonConverged
				done = true
			}
		}
	}

	if !done {
		warnings = append(warnings, Warning{
			Kind:    WarnOuterCap,
			Message: fmt.Sprintf("noise covariance did not settle within %d outer passes", e.maxOuter),
		})
		reason = ReasonOuterCap
	}

	// Report the information matrix from finite-difference sensitivities
	// at the converged estimate, whatever mode drove the iteration.
	s, err := e.numericalSensitivity(st.p)
	if err != nil {
		return nil, err
	}
	fisher, _ := e.normalEquations(s, st.r, st.y)

	return &Result{
		Params:       st.p,
		Fisher:       fisher,
		Noise:        st.r,
		Cost:         st.costs,
		ParamHistory: st.params,
		Iterations:   len(st.costs) - 1,
		Reason:       reason,
		Warnings:     warnings,
	}, nil
}

// innerLoop runs damped Gauss-Newton updates at fixed noise covariance
// until the parameter step drops below tolerance, the step-halving line
// search stalls repeatedly, or the iteration budget runs out.
func (e *Estimator) innerLoop(ctx context.Context, st *iterState, outer int) (innerOutcome, error) {
	stalls := 0

	for inner := 0; inner < e.maxInner; inner++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		s, err := e.sensitivity(st.p, e.chooseMode(outer, inner))
		if err != nil {
			return 0, err
		}

		m, g := e.normalEquations(s, st.r, st.y)
		step, err := e.solveStep(m, g, st.p)
		if err != nil {
			return 0, err
		}

		prev := st.p.Clone()
		accepted := false

		for k := 0; k < e.maxHalvings; k++ {
			scale := 1.0 / float64(int(1)<<k)
			cand := prev.Clone()
			for idx := range cand {
				cand[idx] += step.AtVec(idx) * scale
			}
			if !cand.IsValid() {
				return 0, fmt.Errorf("%w: in outer pass %d, inner iteration %d",
					dynamo.ErrDiverged, outer, inner)
			}

			y, err := e.sim.Outputs(cand)
			if err != nil {
				// A failed simulation at this step length counts as a
				// failed attempt; keep halving.
				continue
			}
			cost := e.cost(st.r, y, cand)
			if math.IsNaN(cost) || cost > st.cost {
				continue
			}

			st.p = cand
			st.y = y
			st.cost = cost
			accepted = true
			break
		}

		if !accepted {
			stalls++
			e.notify(outer, inner, st)
			if stalls >= e.maxStalls {
				return innerStalled, nil
			}
			continue
		}
		stalls = 0

		st.record()
		e.notify(outer, inner, st)

		if maxAbsDelta(st.p, prev) < e.paramTol {
			return innerTolReached, nil
		}
	}

	return innerCapped, nil
}

// normalEquations accumulates the Fisher information matrix
// M = sum_i S_i' R^-1 S_i and the gradient g = -sum_i S_i' R^-1 (z_i - y_i)
// over all samples.
func (e *Estimator) normalEquations(s []*mat.Dense, r *mat.DiagDense, y *mat.Dense) (*mat.SymDense, *mat.VecDense) {
	np := e.model.ParamDim()
	no := e.exp.Outputs()
	z := e.exp.Z

	m := mat.NewSymDense(np, nil)
	g := mat.NewVecDense(np, nil)

	for i, si := range s {
		for k := 0; k < no; k++ {
			w := 1.0 / r.At(k, k)
			res := z.At(k, i) - y.At(k, i)
			for a := 0; a < np; a++ {
				sa := si.At(k, a)
				g.SetVec(a, g.AtVec(a)-sa*w*res)
				for b := a; b < np; b++ {
					m.SetSym(a, b, m.At(a, b)+sa*w*si.At(k, b))
				}
			}
		}
	}

	return m, g
}

// solveStep computes the Gauss-Newton direction -pinv(M) g, augmented by
// the prior when one is configured: the diagonal prior precision joins M
// and the prior pull joins the gradient.
func (e *Estimator) solveStep(m *mat.SymDense, g *mat.VecDense, p dynamo.Params) (*mat.VecDense, error) {
	np := len(p)

	a := mat.NewSymDense(np, nil)
	a.CopySym(m)
	rhs := mat.NewVecDense(np, nil)
	rhs.CopyVec(g)

	if e.prior != nil {
		for j := 0; j < np; j++ {
			inv := 1.0 / e.prior.Variance[j]
			a.SetSym(j, j, a.At(j, j)+inv)
			rhs.SetVec(j, rhs.AtVec(j)+inv*(p[j]-e.prior.Mean[j]))
		}
	}

	step, err := pinvSolve(a, rhs)
	if err != nil {
		return nil, err
	}
	step.ScaleVec(-1, step)
	return step, nil
}

// outerConverged tests the relative cost change and the relative change
// of every noise-covariance diagonal entry.
func (e *Estimator) outerConverged(cost, costPrev float64, r, rPrev *mat.DiagDense) bool {
	if math.Abs(cost-costPrev) > e.costTol*math.Abs(costPrev) {
		return false
	}
	for k := 0; k < r.Diag(); k++ {
		if math.Abs(r.At(k, k)-rPrev.At(k, k)) > e.covTol*math.Abs(rPrev.At(k, k)) {
			return false
		}
	}
	return true
}

func (e *Estimator) notify(outer, inner int, st *iterState) {
	if e.observer == nil {
		return
	}

	no, ns := e.exp.Z.Dims()
	residual := mat.NewDense(no, ns, nil)
	residual.Sub(e.exp.Z, st.y)

	e.observer.OnIteration(Progress{
		Outer:      outer,
		Inner:      inner,
		Params:     st.p.Clone(),
		Cost:       st.cost,
		CostTrace:  append([]float64(nil), st.costs...),
		ParamTrace: append([]dynamo.Params(nil), st.params...),
		Residual:   residual,
	})
}

func maxAbsDelta(a, b dynamo.Params) float64 {
	max := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > max {
			max = d
		}
	}
	return max
}
