package config

import (
	"fmt"
	"sort"
)

var presets = map[string]*Config{
	"decay-demo": {
		Model:      "decay",
		Integrator: "rk45",
		InitState:  []float64{1},
		InitParams: []float64{1},
		TrueParams: []float64{0.5},
		Dt:         0.25,
		Duration:   4,
		NoiseStd:   0.005,
		Seed:       7,
	},
	"pendulum-demo": {
		Model:      "pendulum",
		Integrator: "rk45",
		InitState:  []float64{0.6, 0},
		InitParams: []float64{0.3, 8.0},
		TrueParams: []float64{0.15, 9.81},
		Dt:         0.05,
		Duration:   6,
		NoiseStd:   0.002,
		Seed:       11,
	},
	"pendulum-prior": {
		Model:      "pendulum",
		Integrator: "rk45",
		InitState:  []float64{0.6, 0},
		InitParams: []float64{0.3, 9.0},
		TrueParams: []float64{0.15, 9.81},
		Dt:         0.05,
		Duration:   6,
		NoiseStd:   0.002,
		Seed:       11,
		Prior: &PriorConfig{
			Mean:     []float64{0.2, 9.81},
			Variance: []float64{0.05, 0.5},
		},
	},
	"spring-demo": {
		Model:      "spring_mass",
		Integrator: "rk45",
		InitState:  []float64{1, 0},
		InitParams: []float64{1.5, 6.0, 0.8},
		TrueParams: []float64{2.0, 8.0, 0.5},
		Dt:         0.05,
		Duration:   8,
		NoiseStd:   0.001,
		Seed:       3,
	},
}

// Preset returns a copy of the named preset configuration.
func Preset(name string) (*Config, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	cp := *p
	return &cp, nil
}

// PresetNames lists available presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
