package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/estimate"
	"github.com/san-kum/sysid/internal/experiment"
)

func TestDatasetRoundTrip(t *testing.T) {
	times := []float64{0, 0.5, 1, 1.5}
	u := mat.NewDense(1, 4, []float64{0, 1, 0, -1})
	z := mat.NewDense(2, 4, []float64{
		1, 0.9, 0.8, 0.7,
		0, 0.1, 0.2, 0.3,
	})
	w := mat.NewDense(1, 4, []float64{2, 2, 2, 2})

	exp, err := experiment.New(times, u, z, w, dynamo.State{1, 0})
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}

	path := filepath.Join(t.TempDir(), "run.csv")
	if err := SaveDataset(path, exp); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadDataset(path, dynamo.State{1, 0})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Samples() != 4 || got.Outputs() != 2 {
		t.Fatalf("shape = %dx%d, want 4x2", got.Samples(), got.Outputs())
	}
	for i := range times {
		if got.T[i] != times[i] {
			t.Errorf("t[%d] = %v, want %v", i, got.T[i], times[i])
		}
	}
	if math.Abs(got.Z.At(1, 3)-0.3) > 1e-12 {
		t.Errorf("z[1,3] = %v, want 0.3", got.Z.At(1, 3))
	}
	if got.U == nil || got.U.At(0, 3) != -1 {
		t.Errorf("control channel lost")
	}
	if got.W == nil || got.W.At(0, 0) != 2 {
		t.Errorf("aux channel lost")
	}
}

func TestDatasetNoOptionalChannels(t *testing.T) {
	times := []float64{0, 1, 2}
	z := mat.NewDense(1, 3, []float64{1, 0.5, 0.25})
	exp, err := experiment.New(times, nil, z, nil, dynamo.State{1})
	if err != nil {
		t.Fatalf("experiment: %v", err)
	}

	path := filepath.Join(t.TempDir(), "bare.csv")
	if err := SaveDataset(path, exp); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadDataset(path, dynamo.State{1})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.U != nil || got.W != nil {
		t.Errorf("expected nil control and aux channels")
	}
}

func TestLoadDatasetBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := "time,z0\n0,1\n1,0.5\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadDataset(path, dynamo.State{1})
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestLoadDatasetTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	if err := os.WriteFile(path, []byte("t,z0\n0,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadDataset(path, dynamo.State{1})
	if !errors.Is(err, dynamo.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestFitReportRoundTrip(t *testing.T) {
	res := &estimate.Result{
		Params:     dynamo.Params{0.5},
		Fisher:     mat.NewSymDense(1, []float64{4}),
		Noise:      mat.NewDiagDense(1, []float64{0.01}),
		Cost:       []float64{10, 3, 1.5},
		Iterations: 2,
		Reason:     estimate.ReasonConverged,
		Warnings:   []estimate.Warning{{Kind: estimate.WarnInnerCap, Message: "inner cap hit"}},
	}

	rep := NewFitReport("decay", res)
	if rep.Cost != 1.5 {
		t.Errorf("cost = %v, want 1.5", rep.Cost)
	}
	if rep.Reason != "converged" {
		t.Errorf("reason = %q", rep.Reason)
	}
	if len(rep.StdDev) != 1 || math.Abs(rep.StdDev[0]-0.5) > 1e-12 {
		t.Errorf("std dev = %v, want [0.5]", rep.StdDev)
	}

	path := filepath.Join(t.TempDir(), "fit.json")
	if err := SaveReport(path, rep); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadReport(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Model != "decay" || got.Params[0] != 0.5 || len(got.Warnings) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
