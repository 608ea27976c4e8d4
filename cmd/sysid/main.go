package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/config"
	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/estimate"
	"github.com/san-kum/sysid/internal/experiment"
	"github.com/san-kum/sysid/internal/integrators"
	"github.com/san-kum/sysid/internal/models"
	"github.com/san-kum/sysid/internal/sim"
	"github.com/san-kum/sysid/internal/storage"
	"github.com/san-kum/sysid/internal/tui"
	"github.com/san-kum/sysid/internal/viz"
)

var (
	configFile string
	preset     string
	integrator string
	dt         float64
	duration   float64
	noiseStd   float64
	seed       int64
	initState  string
	trueParams string
	guess      string
	outPath    string
	reportPath string
	watch      bool
	live       bool
	frameRate  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sysid",
		Short: "parameter estimation for dynamic models",
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "simulate a model and write a measurement dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	simulateCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	simulateCmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	simulateCmd.Flags().Float64Var(&dt, "dt", 0, "sample period")
	simulateCmd.Flags().Float64Var(&duration, "time", 0, "duration")
	simulateCmd.Flags().Float64Var(&noiseStd, "noise", 0, "measurement noise standard deviation")
	simulateCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	simulateCmd.Flags().StringVar(&initState, "state", "", "initial state (comma separated)")
	simulateCmd.Flags().StringVar(&trueParams, "params", "", "true parameters (comma separated)")
	simulateCmd.Flags().StringVar(&outPath, "out", "dataset.csv", "output dataset path")

	fitCmd := &cobra.Command{
		Use:   "fit [dataset]",
		Short: "estimate model parameters from a dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	fitCmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	fitCmd.Flags().StringVar(&initState, "state", "", "initial state (comma separated)")
	fitCmd.Flags().StringVar(&guess, "guess", "", "initial parameter guess (comma separated)")
	fitCmd.Flags().StringVar(&reportPath, "report", "", "write fit report JSON to path")
	fitCmd.Flags().BoolVar(&watch, "watch", false, "follow the fit in a terminal view")
	fitCmd.Flags().BoolVar(&live, "live", false, "print progress frames while fitting")
	fitCmd.Flags().IntVar(&frameRate, "fps", 10, "frame rate for --live")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(simulateCmd, fitCmd, modelsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file, and flags, in increasing
// precedence.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p, err := config.Preset(preset)
		if err != nil {
			return nil, fmt.Errorf("%v (available: %v)", err, config.PresetNames())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 && cmd.Name() == "simulate" {
		cfg.Model = args[0]
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("noise") {
		cfg.NoiseStd = noiseStd
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if initState != "" {
		vals, err := parseFloats(initState)
		if err != nil {
			return nil, fmt.Errorf("bad --state: %w", err)
		}
		cfg.InitState = vals
	}
	if trueParams != "" {
		vals, err := parseFloats(trueParams)
		if err != nil {
			return nil, fmt.Errorf("bad --params: %w", err)
		}
		cfg.TrueParams = vals
	}
	if guess != "" {
		vals, err := parseFloats(guess)
		if err != nil {
			return nil, fmt.Errorf("bad --guess: %w", err)
		}
		cfg.InitParams = vals
	}

	return cfg, nil
}

func lookupIntegrator(name string) (dynamo.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4":
		return integrators.NewRK4(), nil
	case "rk45", "":
		return integrators.NewRK45(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	model, err := models.Lookup(cfg.Model)
	if err != nil {
		return err
	}
	integ, err := lookupIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}
	if cfg.Dt <= 0 || cfg.Duration <= 0 {
		return fmt.Errorf("dt and duration must be positive")
	}

	ns := int(cfg.Duration/cfg.Dt) + 1
	times := make([]float64, ns)
	for i := range times {
		times[i] = float64(i) * cfg.Dt
	}

	// Unforced experiments: excitation comes from the initial state.
	var u *mat.Dense
	if model.ControlDim() > 0 {
		u = mat.NewDense(model.ControlDim(), ns, nil)
	}
	z := mat.NewDense(model.OutputDim(), ns, nil)
	exp, err := experiment.New(times, u, z, nil, dynamo.State(cfg.InitState))
	if err != nil {
		return err
	}
	if err := exp.CheckModel(model); err != nil {
		return err
	}

	truth := dynamo.Params(cfg.TrueParams)
	if len(truth) != model.ParamDim() {
		return fmt.Errorf("model %s needs %d parameters, got %d", cfg.Model, model.ParamDim(), len(truth))
	}

	fmt.Printf("simulating %s over %d samples...\n", cfg.Model, ns)
	y, err := sim.New(model, integ, exp).Outputs(truth)
	if err != nil {
		return err
	}
	exp.Z.Copy(y)

	if cfg.NoiseStd > 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		no, _ := exp.Z.Dims()
		for i := 0; i < ns; i++ {
			for k := 0; k < no; k++ {
				exp.Z.Set(k, i, exp.Z.At(k, i)+rng.NormFloat64()*cfg.NoiseStd)
			}
		}
	}

	if err := storage.SaveDataset(outPath, exp); err != nil {
		return err
	}
	fmt.Printf("dataset written to %s\n", outPath)
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	dataset := cfg.Dataset
	if len(args) > 0 {
		dataset = args[0]
	}
	if dataset == "" {
		return fmt.Errorf("no dataset: pass a path or set dataset in the config")
	}

	model, err := models.Lookup(cfg.Model)
	if err != nil {
		return err
	}
	integ, err := lookupIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	exp, err := storage.LoadDataset(dataset, dynamo.State(cfg.InitState))
	if err != nil {
		return err
	}

	est, err := estimate.New(model, integ, exp)
	if err != nil {
		return err
	}

	if cfg.Prior != nil {
		prior, err := experiment.NewPrior(dynamo.Params(cfg.Prior.Mean), cfg.Prior.Variance)
		if err != nil {
			return err
		}
		if err := est.SetPrior(prior); err != nil {
			return err
		}
	}
	if cfg.OutputMap != nil {
		a, err := denseFromRows(cfg.OutputMap)
		if err != nil {
			return err
		}
		if err := est.SetOutputMap(a); err != nil {
			return err
		}
	}

	names := paramNames(model)
	start := time.Now()

	var res *estimate.Result
	if watch {
		res, err = runWatched(est, cfg, names)
	} else {
		if live {
			r := tui.NewLiveRenderer(os.Stdout, cfg.Model, names, frameRate)
			r.Start()
			defer r.Stop()
			est.SetObserver(r)
		}
		res, err = est.Run(context.Background(), dynamo.Params(cfg.InitParams))
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(viz.Summary(cfg.Model, names, res))
	if graph := viz.CostTrace(res.Cost); graph != "" {
		fmt.Println(graph)
	}
	fmt.Printf("completed in %v\n", elapsed)

	if reportPath != "" {
		rep := storage.NewFitReport(cfg.Model, res)
		if err := storage.SaveReport(reportPath, rep); err != nil {
			return err
		}
		fmt.Printf("report written to %s\n", reportPath)
	}
	return nil
}

// runWatched runs the estimation in a goroutine while a terminal view
// consumes progress snapshots.
func runWatched(est *estimate.Estimator, cfg *config.Config, names []string) (*estimate.Result, error) {
	updates := make(chan estimate.Progress, 16)
	est.SetObserver(estimate.ObserverFunc(func(p estimate.Progress) {
		updates <- p
	}))

	type outcome struct {
		res *estimate.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := est.Run(context.Background(), dynamo.Params(cfg.InitParams))
		close(updates)
		done <- outcome{res, err}
	}()

	p := tea.NewProgram(viz.NewFitView(cfg.Model, names, updates))
	if _, err := p.Run(); err != nil {
		return nil, err
	}

	// Drain in case the view quit before the fit finished.
	for range updates {
	}
	out := <-done
	return out.res, out.err
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATES\tOUTPUTS\tPARAMS\tJACOBIANS\tPARAM NAMES")

	for _, name := range models.Names() {
		m, err := models.Lookup(name)
		if err != nil {
			return err
		}
		jac := "no"
		if dynamo.HasJacobians(m) {
			jac = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			name, m.StateDim(), m.OutputDim(), m.ParamDim(), jac,
			strings.Join(paramNames(m), ", "))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tDT\tDURATION\tNOISE\tPRIOR")

	for _, name := range config.PresetNames() {
		p, err := config.Preset(name)
		if err != nil {
			return err
		}
		prior := "-"
		if p.Prior != nil {
			prior = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%.3g\t%.3g\t%.3g\t%s\n",
			name, p.Model, p.Dt, p.Duration, p.NoiseStd, prior)
	}
	return w.Flush()
}

func paramNames(m dynamo.Model) []string {
	if named, ok := m.(dynamo.Named); ok {
		return named.ParamNames()
	}
	names := make([]string, m.ParamDim())
	for i := range names {
		names[i] = fmt.Sprintf("p%d", i)
	}
	return names
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty output map")
	}
	nc := len(rows[0])
	data := make([]float64, 0, len(rows)*nc)
	for _, row := range rows {
		if len(row) != nc {
			return nil, fmt.Errorf("ragged output map")
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), nc, data), nil
}
