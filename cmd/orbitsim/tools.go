package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
)

var (
	lyapMethod       string
	lyapPerturbation float64
	perturbation     float64
	central          string
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [preset] [method1] [method2] ...",
		Short: "run one preset with several methods concurrently",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}
	cmd.Flags().Float64Var(&dt, "dt", 0, "sample interval in seconds")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds")
	return cmd
}

func newLyapunovCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyapunov [preset]",
		Short: "estimate the largest Lyapunov exponent of a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  lyapunov,
	}
	cmd.Flags().StringVar(&lyapMethod, "method", "rk4", "fixed-step method")
	cmd.Flags().Float64Var(&dt, "dt", 0, "step size (default: preset dt)")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration (default: preset duration)")
	cmd.Flags().Float64Var(&lyapPerturbation, "perturbation", 1e-8, "initial separation, relative to the first coordinate scale")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.ListModels()
			if len(args) > 0 {
				models = args
			}
			for _, model := range models {
				presets := config.ListPresets(model)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", model)
					continue
				}
				fmt.Printf("%s:\n", model)
				for _, p := range presets {
					cfg := config.GetPreset(model, p)
					fmt.Printf("  %-20s %d bodies, %s/%s\n", p, len(cfg.Bodies), cfg.Strategy, cfg.StepMethod())
				}
			}
			return nil
		},
	}
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "list integration methods and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			fmt.Println("methods:")
			for _, m := range reg.ListMethods() {
				strategy, err := reg.StrategyFor(m)
				if err != nil {
					return err
				}
				fmt.Printf("  %-20s %s\n", m, strategy)
			}
			fmt.Println("metrics:")
			for _, m := range reg.ListMetrics() {
				fmt.Printf("  %s\n", m)
			}
			return nil
		},
	}
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "list catalog bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BODY\tMASS (kg)\tPERIHELION (m)\tAPHELION (m)\tPERIOD (days)")
			for _, name := range cat.Bodies() {
				m, _ := cat.Mass(name)
				if o, err := cat.Orbit(name); err == nil {
					fmt.Fprintf(w, "%s\t%.4e\t%.4e\t%.4e\t%.3f\n", name, m, o.Perihelion, o.Aphelion, o.Period/86400)
				} else {
					fmt.Fprintf(w, "%s\t%.4e\t-\t-\t-\n", name, m)
				}
			}
			return w.Flush()
		},
	}
}

func newVisVivaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visviva [body]",
		Short: "derive orbital elements and perihelion speed of a catalog body",
		Args:  cobra.ExactArgs(1),
		RunE:  visViva,
	}
	cmd.Flags().StringVar(&central, "central", "sun", "central body")
	return cmd
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig("", args[:1])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, experiment.WithCatalog(cat), experiment.WithLogger(logging.Log))
	if err := exp.Setup(); err != nil {
		return err
	}

	methods := args[1:]
	results, err := exp.Compare(cmd.Context(), methods)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSAMPLES\tSTEPS\tENERGY DRIFT\tMOMENTUM DRIFT\tANG MOMENTUM DRIFT\tDIVERGED")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3e\t%.3e\t%.3e\t%v\n",
			res.Method,
			res.Trajectory.Len(),
			res.Stats.Steps,
			res.EnergyDrift,
			res.Metrics["momentum_drift"],
			res.Metrics["angular_momentum_drift"],
			res.Diverged,
		)
	}
	return w.Flush()
}

func lyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig("", args)
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	sys, err := cfg.Build(cat)
	if err != nil {
		return err
	}
	nb, err := sys.NBody()
	if err != nil {
		return err
	}
	stepper, err := integrators.NewStepper(lyapMethod)
	if err != nil {
		return err
	}

	step := cfg.Dt
	if cmd.Flags().Changed("dt") {
		step = dt
	}
	span := cfg.Duration
	if cmd.Flags().Changed("time") {
		span = duration
	}

	scale := sys.State.Norm()
	if scale == 0 {
		scale = 1
	}
	lambda, err := analysis.LyapunovExponent(nb, stepper, sys.State, step, span, lyapPerturbation*scale)
	if err != nil {
		return err
	}

	fmt.Printf("preset: %s\n", cfg.Name)
	fmt.Printf("method: %s, dt %.4g, duration %.4g\n", lyapMethod, step, span)
	fmt.Printf("largest lyapunov exponent: %.6e 1/s\n", lambda)
	if lambda > 0 {
		fmt.Printf("e-folding time: %.6g s\n", 1/lambda)
	}
	return nil
}

func visViva(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	body := args[0]
	orbit, err := cat.Orbit(body)
	if err != nil {
		return err
	}
	mc, err := cat.Mass(central)
	if err != nil {
		return err
	}

	g := physics.DefaultGravity()
	a := physics.SemiMajorAxis(orbit.Perihelion, orbit.Aphelion)
	b := physics.SemiMinorAxis(orbit.Perihelion, orbit.Aphelion)
	mu := g.G * mc

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "body\t%s (around %s)\n", body, central)
	fmt.Fprintf(w, "semi-major axis\t%.6e m\n", a)
	fmt.Fprintf(w, "semi-minor axis\t%.6e m\n", b)
	fmt.Fprintf(w, "eccentricity\t%.6f\n", physics.Eccentricity(orbit.Perihelion, orbit.Aphelion))
	fmt.Fprintf(w, "kepler period\t%.6e s (%.3f days)\n", physics.OrbitalPeriod(mu, a), physics.OrbitalPeriod(mu, a)/86400)
	fmt.Fprintf(w, "catalog period\t%.6e s (%.3f days)\n", orbit.Period, orbit.Period/86400)
	fmt.Fprintf(w, "perihelion speed (vis-viva)\t%.6f m/s\n", physics.VisViva(mu, orbit.Perihelion, a))
	if orbit.Period > 0 {
		area := physics.OrbitalArea(a, b)
		fmt.Fprintf(w, "perihelion speed (areal)\t%.6f m/s\n", physics.PerihelionSpeed(area, orbit.Period, orbit.Perihelion))
	}
	return w.Flush()
}
