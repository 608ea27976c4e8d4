package experiment

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
)

func TestNewValid(t *testing.T) {
	z := mat.NewDense(1, 3, []float64{1, 2, 3})
	e, err := New([]float64{0, 1, 2}, nil, z, nil, dynamo.State{1})
	if err != nil {
		t.Fatalf("valid experiment rejected: %v", err)
	}
	if e.Samples() != 3 || e.Outputs() != 1 {
		t.Errorf("dims: got %d samples, %d outputs", e.Samples(), e.Outputs())
	}
}

func TestNewColumnMismatch(t *testing.T) {
	// 5 sampling times but only 4 control columns.
	z := mat.NewDense(1, 5, nil)
	u := mat.NewDense(1, 4, nil)
	_, err := New([]float64{0, 1, 2, 3, 4}, u, z, nil, dynamo.State{1})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestNewUnorderedTimes(t *testing.T) {
	z := mat.NewDense(1, 3, nil)
	_, err := New([]float64{0, 2, 1}, nil, z, nil, dynamo.State{1})
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected ErrConfig for unordered times, got %v", err)
	}
}

func TestNewTooFewSamples(t *testing.T) {
	z := mat.NewDense(1, 1, nil)
	_, err := New([]float64{0}, nil, z, nil, dynamo.State{1})
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected ErrConfig for single sample, got %v", err)
	}
}

func TestNewPrior(t *testing.T) {
	p, err := NewPrior(dynamo.Params{0.5, 1.0}, []float64{0.1, 0.2})
	if err != nil {
		t.Fatalf("valid prior rejected: %v", err)
	}
	if len(p.Mean) != 2 {
		t.Errorf("prior mean length %d", len(p.Mean))
	}

	if _, err := NewPrior(dynamo.Params{0.5}, []float64{0.1, 0.2}); !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected ErrConfig for length mismatch, got %v", err)
	}
	if _, err := NewPrior(dynamo.Params{0.5}, []float64{-1}); !errors.Is(err, dynamo.ErrConfig) {
		t.Errorf("expected ErrConfig for non-positive variance, got %v", err)
	}
}
