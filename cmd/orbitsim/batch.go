package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/automation"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/optim"
)

var (
	sweepParams []string
	sweepMetric string
	trials      int
	seed        int64
)

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}

			results, err := automation.RunScenario(cmd.Context(), sc, cat, st)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tNAME\tMETHOD\tSAMPLES\tENERGY DRIFT\tRUN ID")
			for i, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.3e\t%s\n",
					i+1, r.Name, r.Result.Method, r.Result.Trajectory.Len(), r.Result.EnergyDrift, r.RunID)
			}
			return w.Flush()
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search run parameters for the smallest metric value",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	cmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter grid, e.g. --param dt=3600,7200,14400 (repeatable)")
	cmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimize")
	cmd.Flags().StringVar(&method, "method", "", "override the preset method")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the preset strategy")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "perturb initial velocities and count bound outcomes",
		Args:  cobra.ExactArgs(1),
		RunE:  monteCarlo,
	}
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().Float64Var(&perturbation, "perturbation", 0.01, "relative velocity perturbation")
	cmd.Flags().Float64Var(&escapeRadius, "escape-radius", 0, "bound radius (default: 3x widest initial distance)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time based)")
	return cmd
}

// parseGrid turns name=v1,v2,... flags into parallel name and value lists.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	grid := make(map[string][]float64)
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --param %q, want name=v1,v2", spec)
		}
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--param %s: %w", name, err)
			}
			grid[name] = append(grid[name], v)
		}
	}

	names := make([]string, 0, len(grid))
	for n := range grid {
		names = append(names, n)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, n := range names {
		ranges[i] = grid[n]
	}
	return names, ranges, nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig("", args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strategy") {
		if err := cfg.SetStrategy(strategy); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("method") {
		if err := cfg.SetMethod(method); err != nil {
			return err
		}
	}

	names, ranges, err := parseGrid(sweepParams)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	best, all, err := g.Search(cmd.Context(), cfg, sweepMetric, experiment.WithCatalog(cat))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for _, p := range all {
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = fmt.Sprintf("%.4g", p.Params[n])
		}
		result := fmt.Sprintf("%.4e", p.Value)
		if p.Err != nil {
			result = "error: " + p.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(vals, "\t"), result)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %v -> %.4e\n", best.Params, best.Value)
	return nil
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig("", args)
	if err != nil {
		return err
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		EscapeRadius: escapeRadius,
		Seed:         seed,
	}, cat)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%s: %d trials, %d bound, %d escaped or diverged\n", cfg.Name, len(results), stable, unstable)
	return nil
}
