package estimate

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// Progress is emitted once per inner iteration, stalled line searches
// included; the histories grow only on accepted iterates. All fields are
// snapshots; observers must treat them as read-only.
type Progress struct {
	Outer, Inner int
	Params       dynamo.Params
	Cost         float64
	CostTrace    []float64
	ParamTrace   []dynamo.Params
	// Residual is the current output residual z - y, OutputDim x Samples.
	Residual *mat.Dense
}

// Observer receives estimation progress. Purely advisory: the driver
// never depends on what an observer does.
type Observer interface {
	OnIteration(p Progress)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Progress)

func (f ObserverFunc) OnIteration(p Progress) { f(p) }
