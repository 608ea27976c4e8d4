package integrators

import (
	"math"

	"github.com/san-kum/sysid/internal/dynamo"
)

type RK4 struct {
	MaxStep float64
}

func NewRK4() *RK4 {
	return &RK4{MaxStep: 1e-2}
}

func (r *RK4) Integrate(rhs dynamo.RHS, from, to float64, x0 dynamo.State) (dynamo.State, error) {
	n := len(x0)
	steps := int(math.Ceil((to - from) / r.MaxStep))
	if steps < 1 {
		steps = 1
	}
	dt := (to - from) / float64(steps)

	x := x0.Clone()
	scratch := make(dynamo.State, n)
	t := from

	for s := 0; s < steps; s++ {
		k1 := rhs(t, x)

		for i := 0; i < n; i++ {
			scratch[i] = x[i] + dt*0.5*k1[i]
		}
		k2 := rhs(t+dt*0.5, scratch)

		for i := 0; i < n; i++ {
			scratch[i] = x[i] + dt*0.5*k2[i]
		}
		k3 := rhs(t+dt*0.5, scratch)

		for i := 0; i < n; i++ {
			scratch[i] = x[i] + dt*k3[i]
		}
		k4 := rhs(t+dt, scratch)

		dt6 := dt / 6.0
		for i := 0; i < n; i++ {
			x[i] += dt6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
		}
		t += dt
	}

	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return x, nil
}
