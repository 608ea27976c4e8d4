package integrators

import (
	"math"

	"github.com/san-kum/sysid/internal/dynamo"
)

type Euler struct {
	MaxStep float64
}

func NewEuler() *Euler {
	return &Euler{MaxStep: 1e-3}
}

func (e *Euler) Integrate(rhs dynamo.RHS, from, to float64, x0 dynamo.State) (dynamo.State, error) {
	n := len(x0)
	steps := int(math.Ceil((to - from) / e.MaxStep))
	if steps < 1 {
		steps = 1
	}
	dt := (to - from) / float64(steps)

	x := x0.Clone()
	t := from
	for s := 0; s < steps; s++ {
		dx := rhs(t, x)
		for i := 0; i < n; i++ {
			x[i] += dt * dx[i]
		}
		t += dt
	}

	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return x, nil
}
