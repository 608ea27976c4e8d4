package viz

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/estimate"
)

func TestCostTrace(t *testing.T) {
	if got := CostTrace([]float64{1}); got != "" {
		t.Errorf("single point should render nothing, got %q", got)
	}

	got := CostTrace([]float64{100, 10, 1, 0.1})
	if got == "" {
		t.Fatal("expected a plot")
	}
	if !strings.Contains(got, "log10 cost per iteration") {
		t.Errorf("caption missing from plot")
	}
	// Non-positive costs must not panic the log axis.
	if CostTrace([]float64{1, 0, -1}) == "" {
		t.Errorf("expected a plot despite non-positive values")
	}
}

func TestSummary(t *testing.T) {
	res := &estimate.Result{
		Params:     dynamo.Params{0.5},
		Fisher:     mat.NewSymDense(1, []float64{4}),
		Noise:      mat.NewDiagDense(1, []float64{0.01}),
		Cost:       []float64{10, 1.5},
		Iterations: 3,
		Reason:     estimate.ReasonStalled,
		Warnings:   []estimate.Warning{{Kind: estimate.WarnOuterCap, Message: "outer cap hit"}},
	}

	got := Summary("decay", []string{"rate"}, res)
	for _, want := range []string{"decay", "rate", "stalled", "outer cap hit"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
