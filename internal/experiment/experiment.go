// Package experiment holds the immutable data of one identification
// experiment: sampling times, control inputs, measured outputs, auxiliary
// data and the initial state. Everything is validated at construction;
// the estimator never re-checks shapes.
package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

type Experiment struct {
	// T holds the Ns sampling times, strictly increasing.
	T []float64
	// U is the control-input matrix, Nc x Ns. Nil means no control channels.
	U *mat.Dense
	// Z is the measured-output matrix, No x Ns.
	Z *mat.Dense
	// W is the auxiliary-data matrix, Na x Ns. Nil means no aux channels.
	W *mat.Dense
	// X0 is the initial state.
	X0 dynamo.State
}

func New(t []float64, u, z, w *mat.Dense, x0 dynamo.State) (*Experiment, error) {
	ns := len(t)
	if ns < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", dynamo.ErrConfig, ns)
	}
	for i := 1; i < ns; i++ {
		if t[i] <= t[i-1] {
			return nil, fmt.Errorf("%w: sampling times must be strictly increasing (t[%d]=%g, t[%d]=%g)",
				dynamo.ErrConfig, i-1, t[i-1], i, t[i])
		}
	}

	if z == nil {
		return nil, fmt.Errorf("%w: measured outputs are required", dynamo.ErrConfig)
	}
	if rows, cols := z.Dims(); rows < 1 || cols != ns {
		return nil, fmt.Errorf("%w: outputs are %dx%d, want No x %d", dynamo.ErrConfig, rows, cols, ns)
	}
	if u != nil {
		if _, cols := u.Dims(); cols != ns {
			return nil, fmt.Errorf("%w: control columns %d != samples %d", dynamo.ErrConfig, cols, ns)
		}
	}
	if w != nil {
		if _, cols := w.Dims(); cols != ns {
			return nil, fmt.Errorf("%w: aux columns %d != samples %d", dynamo.ErrConfig, cols, ns)
		}
	}

	if len(x0) < 1 {
		return nil, fmt.Errorf("%w: initial state is required", dynamo.ErrConfig)
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("%w: initial state is non-finite", dynamo.ErrConfig)
	}

	return &Experiment{T: t, U: u, Z: z, W: w, X0: x0}, nil
}

// Samples returns Ns.
func (e *Experiment) Samples() int { return len(e.T) }

// Outputs returns No.
func (e *Experiment) Outputs() int {
	rows, _ := e.Z.Dims()
	return rows
}

// ControlAt returns the control-input column at sample i, or nil when the
// experiment carries no control channels.
func (e *Experiment) ControlAt(i int) dynamo.Control {
	if e.U == nil {
		return nil
	}
	rows, _ := e.U.Dims()
	col := make(dynamo.Control, rows)
	for k := 0; k < rows; k++ {
		col[k] = e.U.At(k, i)
	}
	return col
}

// AuxAt returns the auxiliary-data column at sample i, or nil when the
// experiment carries no aux channels.
func (e *Experiment) AuxAt(i int) dynamo.Aux {
	if e.W == nil {
		return nil
	}
	rows, _ := e.W.Dims()
	col := make(dynamo.Aux, rows)
	for k := 0; k < rows; k++ {
		col[k] = e.W.At(k, i)
	}
	return col
}

// CheckModel verifies that the experiment's shapes match a model's
// declared dimensions.
func (e *Experiment) CheckModel(m dynamo.Model) error {
	if len(e.X0) != m.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, model has %d states",
			dynamo.ErrConfig, len(e.X0), m.StateDim())
	}
	if e.Outputs() != m.OutputDim() {
		return fmt.Errorf("%w: experiment has %d output channels, model has %d",
			dynamo.ErrConfig, e.Outputs(), m.OutputDim())
	}
	if e.U != nil {
		rows, _ := e.U.Dims()
		if rows != m.ControlDim() {
			return fmt.Errorf("%w: experiment has %d control channels, model has %d",
				dynamo.ErrConfig, rows, m.ControlDim())
		}
	} else if m.ControlDim() > 0 {
		return fmt.Errorf("%w: model expects %d control channels, experiment has none",
			dynamo.ErrConfig, m.ControlDim())
	}
	return nil
}
