package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/tui"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	configFile   string
	strategy     string
	method       string
	dt           float64
	duration     float64
	rtol         float64
	atol         float64
	maxSteps     int
	escapeRadius float64
	showProgress bool
	live         bool
	liveStride   int
	noSave       bool
	saveConfig   string
	extraMetrics []string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation from a preset or config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&strategy, "strategy", "", "adaptive or fixed")
	f.StringVar(&method, "method", "", "integration method (rk45, rk23, symplectic-euler, leapfrog, ...)")
	f.Float64Var(&dt, "dt", 0, "sample interval in seconds")
	f.Float64Var(&duration, "time", 0, "duration in seconds")
	f.Float64Var(&rtol, "rtol", 0, "relative tolerance (adaptive)")
	f.Float64Var(&atol, "atol", 0, "absolute tolerance (adaptive)")
	f.IntVar(&maxSteps, "max-steps", 0, "step limit (adaptive)")
	f.Float64Var(&escapeRadius, "escape-radius", 0, "report samples with a body beyond this distance")
	f.BoolVar(&showProgress, "progress", false, "show a progress bar")
	f.BoolVar(&live, "live", false, "replay the trajectory in the terminal")
	f.IntVar(&liveStride, "live-stride", 10, "samples per replay frame")
	f.BoolVar(&noSave, "no-save", false, "do not store the run")
	f.StringVar(&saveConfig, "save-config", "", "write the effective config to this path")
	f.StringSliceVar(&extraMetrics, "metric", nil, "additional metrics by name (see: orbitsim methods)")
	return cmd
}

// applyFlags overrides config values with explicitly set flags. The strategy
// is applied first so --method is checked against it.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		if err := cfg.SetStrategy(strategy); err != nil {
			return err
		}
	}
	if flags.Changed("method") {
		if err := cfg.SetMethod(method); err != nil {
			return err
		}
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("rtol") {
		cfg.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.ATol = atol
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("escape-radius") {
		cfg.EscapeRadius = escapeRadius
	}
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(configFile, args)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithCatalog(cat), experiment.WithLogger(logging.Log))
	if err := exp.Setup(extraMetrics...); err != nil {
		return err
	}
	if live {
		replay := newReplay(exp)
		exp.GetSimulator().AddObserver(replay)
		defer replay.Close()
	}

	name := cfg.Name
	if name == "" {
		name = "custom"
	}
	fmt.Printf("running %s (%s, %s)...\n", name, cfg.Strategy, cfg.StepMethod())
	start := time.Now()

	run := func(progress dynamo.ProgressFunc) (*sim.Result, error) {
		exp.SetProgress(progress)
		return exp.Run(cmd.Context())
	}

	var result *sim.Result
	if showProgress {
		result, err = tui.RunWithProgress(name, os.Stderr, run)
	} else {
		result, err = run(nil)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		sys := exp.System()
		meta := storage.NewMetadata(name, cfg.Strategy, sys.Gravity.G, sys.Names, sys.Masses, cfg.SimConfig(), result)
		runID, err := st.Save(meta, result.Trajectory)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printResult(result)
	return nil
}

// newReplay sizes the replay view to 1.5 times the widest initial distance
// from the origin so eccentric orbits stay inside the frame.
func newReplay(exp *experiment.Experiment) *tui.LiveRenderer {
	sys := exp.System()
	r := 0.0
	for i := range sys.Names {
		p := sys.State.Position(i)
		r = math.Max(r, math.Hypot(p.X, p.Y))
	}
	if r == 0 {
		r = 1
	}
	r *= 1.5
	bounds := viz.Bounds{MinX: -r, MaxX: r, MinY: -r, MaxY: r}

	replay := tui.NewLiveRenderer(os.Stdout, bounds, 60, 30)
	replay.Stride = liveStride
	replay.Delay = 15 * time.Millisecond
	return replay
}

func printResult(res *sim.Result) {
	fmt.Printf("samples: %d\n", res.Trajectory.Len())
	if res.Stats.Steps > 0 {
		fmt.Printf("steps: %d (rejected %d, evaluations %d)\n", res.Stats.Steps, res.Stats.Rejected, res.Stats.Evaluations)
	}
	if res.Diverged {
		fmt.Println(viz.WarningStyle.Render(fmt.Sprintf("diverged: first non-finite sample %d", res.FirstNonFinite)))
	}
	fmt.Println()
	fmt.Print(viz.Summary("metrics", res.Metrics))
}
