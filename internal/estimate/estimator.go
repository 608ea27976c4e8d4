// Package estimate implements output-error parameter estimation: a damped
// Gauss-Newton iteration that matches a simulated output sequence to
// measurements under a weighted least-squares criterion, with optional
// Gaussian prior fusion.
package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/experiment"
	"github.com/san-kum/sysid/internal/sim"
)

// Iteration limits and convergence thresholds of the nested driver loops.
const (
	maxOuterIterations = 1000
	maxInnerIterations = 100
	maxHalvings        = 10
	maxStalls          = 10
	paramTol           = 1e-5
	costTol            = 1e-3
	covTol             = 0.05
)

// simulator is the slice of sim.Simulator the driver needs.
type simulator interface {
	Outputs(p dynamo.Params) (*mat.Dense, error)
	States(p dynamo.Params) (*mat.Dense, error)
}

type Estimator struct {
	model dynamo.Model
	exp   *experiment.Experiment
	integ dynamo.Integrator
	sim   simulator

	prior     *experiment.Prior
	outputMap *mat.Dense
	observer  Observer

	maxOuter, maxInner        int
	maxHalvings, maxStalls    int
	paramTol, costTol, covTol float64
}

func New(model dynamo.Model, integ dynamo.Integrator, exp *experiment.Experiment) (*Estimator, error) {
	if err := exp.CheckModel(model); err != nil {
		return nil, err
	}
	return &Estimator{
		model:       model,
		exp:         exp,
		integ:       integ,
		sim:         sim.New(model, integ, exp),
		maxOuter:    maxOuterIterations,
		maxInner:    maxInnerIterations,
		maxHalvings: maxHalvings,
		maxStalls:   maxStalls,
		paramTol:    paramTol,
		costTol:     costTol,
		covTol:      covTol,
	}, nil
}

// SetPrior configures a Gaussian parameter prior. The prior length must
// match the model's parameter count.
func (e *Estimator) SetPrior(p *experiment.Prior) error {
	if len(p.Mean) != e.model.ParamDim() {
		return fmt.Errorf("%w: prior has %d parameters, model has %d",
			dynamo.ErrConfig, len(p.Mean), e.model.ParamDim())
	}
	e.prior = p
	return nil
}

// SetOutputMap configures the output-to-state map A (x ~ A*y) that seeds
// the bootstrap sensitivity computation from measurements. A must have
// full column rank so every measurement channel contributes.
func (e *Estimator) SetOutputMap(a *mat.Dense) error {
	rows, cols := a.Dims()
	if rows != e.model.StateDim() || cols != e.model.OutputDim() {
		return fmt.Errorf("%w: output map is %dx%d, want %dx%d",
			dynamo.ErrConfig, rows, cols, e.model.StateDim(), e.model.OutputDim())
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return fmt.Errorf("%w: output map svd failed", dynamo.ErrConfig)
	}
	vals := svd.Values(nil)
	tol := vals[0] * float64(rows) * 1e-15
	rank := 0
	for _, sv := range vals {
		if sv > tol {
			rank++
		}
	}
	if rank < cols {
		return fmt.Errorf("%w: output map has column rank %d, want %d",
			dynamo.ErrConfig, rank, cols)
	}

	e.outputMap = a
	return nil
}

// SetObserver installs a progress observer. The observer is advisory: it
// must not mutate anything it receives.
func (e *Estimator) SetObserver(o Observer) {
	e.observer = o
}

// chooseMode implements the sensitivity schedule: bootstrap on the very
// first inner iteration of the first outer pass when an output map is
// configured, analytic for the first five inner iterations of the first
// outer pass when Jacobians exist, finite differences everywhere else.
func (e *Estimator) chooseMode(outer, inner int) Mode {
	if outer == 0 && dynamo.HasJacobians(e.model) {
		if inner == 0 && e.outputMap != nil {
			return ModeBootstrap
		}
		if inner < 5 {
			return ModeAnalytic
		}
	}
	return ModeNumerical
}
