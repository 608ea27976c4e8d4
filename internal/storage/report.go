package storage

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/san-kum/sysid/internal/estimate"
)

// FitReport is the JSON summary of one completed estimation run.
type FitReport struct {
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
	Params     []float64 `json:"params"`
	StdDev     []float64 `json:"std_dev,omitempty"`
	Noise      []float64 `json:"noise"`
	Cost       float64   `json:"cost"`
	CostTrace  []float64 `json:"cost_trace,omitempty"`
	Iterations int       `json:"iterations"`
	Reason     string    `json:"reason"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// NewFitReport summarizes a result. Parameter standard deviations come
// from the information matrix; they are omitted when a diagonal of its
// pseudo-inverse comes out negative.
func NewFitReport(model string, res *estimate.Result) *FitReport {
	rep := &FitReport{
		Model:      model,
		Timestamp:  time.Now(),
		Params:     append([]float64(nil), res.Params...),
		CostTrace:  append([]float64(nil), res.Cost...),
		Iterations: res.Iterations,
		Reason:     res.Reason.String(),
	}
	if n := len(res.Cost); n > 0 {
		rep.Cost = res.Cost[n-1]
	}

	nz := res.Noise.Diag()
	rep.Noise = make([]float64, nz)
	for i := 0; i < nz; i++ {
		rep.Noise[i] = res.Noise.At(i, i)
	}

	for _, warn := range res.Warnings {
		rep.Warnings = append(rep.Warnings, warn.Message)
	}

	if cov, err := res.Covariance(); err == nil {
		std := make([]float64, len(res.Params))
		ok := true
		for i := range std {
			v := cov.At(i, i)
			if v < 0 {
				ok = false
				break
			}
			std[i] = math.Sqrt(v)
		}
		if ok {
			rep.StdDev = std
		}
	}
	return rep
}

// SaveReport writes the report as indented JSON.
func SaveReport(path string, rep *FitReport) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (*FitReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep FitReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
