package models

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

// checkStateJac compares an analytic df/dx against central differences.
func checkStateJac(t *testing.T, m dynamo.Model, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	t.Helper()

	jac, ok := m.(dynamo.Jacobians)
	if !ok {
		t.Fatal("model does not supply Jacobians")
	}

	fx := jac.StateJac(x, u, p, nil)
	const h = 1e-6

	for j := 0; j < m.StateDim(); j++ {
		xp := x.Clone()
		xm := x.Clone()
		xp[j] += h
		xm[j] -= h
		fp := m.Derive(xp, u, p, nil)
		fm := m.Derive(xm, u, p, nil)
		for i := 0; i < m.StateDim(); i++ {
			fd := (fp[i] - fm[i]) / (2 * h)
			if math.Abs(fx.At(i, j)-fd) > 1e-5 {
				t.Errorf("df/dx[%d,%d]: analytic %.8f, finite diff %.8f", i, j, fx.At(i, j), fd)
			}
		}
	}
}

func checkParamStateJac(t *testing.T, m dynamo.Model, x dynamo.State, u dynamo.Control, p dynamo.Params) {
	t.Helper()

	jac := m.(dynamo.Jacobians)
	fp := jac.ParamStateJac(x, u, p, nil)
	const h = 1e-6

	for j := 0; j < m.ParamDim(); j++ {
		pp := p.Clone()
		pm := p.Clone()
		pp[j] += h
		pm[j] -= h
		dp := m.Derive(x, u, pp, nil)
		dm := m.Derive(x, u, pm, nil)
		for i := 0; i < m.StateDim(); i++ {
			fd := (dp[i] - dm[i]) / (2 * h)
			if math.Abs(fp.At(i, j)-fd) > 1e-5 {
				t.Errorf("df/dp[%d,%d]: analytic %.8f, finite diff %.8f", i, j, fp.At(i, j), fd)
			}
		}
	}
}

func TestDecayJacobians(t *testing.T) {
	m := NewDecay()
	x := dynamo.State{0.7}
	p := dynamo.Params{0.5}

	checkStateJac(t, m, x, nil, p)
	checkParamStateJac(t, m, x, nil, p)

	if got := m.ParamOutputJac(x, nil, p, nil); got.At(0, 0) != 0 {
		t.Errorf("dh/dp should be zero, got %f", got.At(0, 0))
	}
}

func TestPendulumJacobians(t *testing.T) {
	m := NewPendulum()
	x := dynamo.State{0.4, -0.3}
	u := dynamo.Control{0.2}
	p := dynamo.Params{0.1, 9.81}

	checkStateJac(t, m, x, u, p)
	checkParamStateJac(t, m, x, u, p)

	hx := m.OutputJac(x, u, p, nil)
	want := mat.NewDense(1, 2, []float64{1, 0})
	if !mat.EqualApprox(hx, want, 1e-12) {
		t.Errorf("unexpected dh/dx: %v", mat.Formatted(hx))
	}
}

func TestSpringMassDerive(t *testing.T) {
	m := NewSpringMass()
	p := dynamo.Params{2.0, 8.0, 0.5}

	dx := m.Derive(dynamo.State{1.0, 0.0}, dynamo.Control{0}, p, nil)
	if dx[0] != 0 {
		t.Errorf("position rate should equal velocity, got %f", dx[0])
	}
	if math.Abs(dx[1]-(-4.0)) > 1e-12 {
		t.Errorf("acceleration: got %f, want -4", dx[1])
	}

	if dynamo.HasJacobians(m) {
		t.Error("spring_mass should not advertise Jacobians")
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		m, err := Lookup(name)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if m.StateDim() < 1 || m.OutputDim() < 1 || m.ParamDim() < 1 {
			t.Errorf("%s reports degenerate dimensions", name)
		}
	}

	if _, err := Lookup("no-such-model"); err == nil {
		t.Error("expected error for unknown model")
	}
}
