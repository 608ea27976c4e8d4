package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "decay"
	DefaultIntegrator = "rk45"
	DefaultDt         = 0.1
	DefaultDuration   = 5.0
)

// Config describes one identification run: which model, where the data
// lives (or how to synthesize it), and how to start the fit.
type Config struct {
	Model      string    `yaml:"model"`
	Integrator string    `yaml:"integrator"`
	Dataset    string    `yaml:"dataset,omitempty"`
	InitState  []float64 `yaml:"init_state"`
	InitParams []float64 `yaml:"init_params"`

	// Simulation settings used by `sysid simulate`.
	TrueParams []float64 `yaml:"true_params,omitempty"`
	Dt         float64   `yaml:"dt,omitempty"`
	Duration   float64   `yaml:"duration,omitempty"`
	NoiseStd   float64   `yaml:"noise_std,omitempty"`
	Seed       int64     `yaml:"seed,omitempty"`

	// Optional estimator extensions.
	Prior     *PriorConfig `yaml:"prior,omitempty"`
	OutputMap [][]float64  `yaml:"output_map,omitempty"`
}

type PriorConfig struct {
	Mean     []float64 `yaml:"mean"`
	Variance []float64 `yaml:"variance"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		InitState:  []float64{1},
		InitParams: []float64{1},
		TrueParams: []float64{0.5},
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
