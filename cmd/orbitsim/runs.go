package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	plotBody      string
	plotComponent string
	plotWidth     int
	plotHeight    int
	plotOrbit     bool
	svgPath       string
	plotEnergy    bool
	centralBody   string
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&plotBody, "body", "", "body name or index (default: every body)")
	cmd.Flags().StringVar(&plotComponent, "component", "x", "state component: x, y, vx, vy")
	cmd.Flags().IntVar(&plotWidth, "width", 80, "plot width in columns")
	cmd.Flags().IntVar(&plotHeight, "height", 12, "plot height in rows")
	cmd.Flags().BoolVar(&plotOrbit, "orbit", false, "draw x/y paths instead of time series")
	cmd.Flags().StringVar(&svgPath, "svg", "", "also write the orbit paths as SVG")
	cmd.Flags().BoolVar(&plotEnergy, "energy", false, "plot total energy instead of positions")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id] [path]",
		Short: "export run trajectory to CSV (stdout when path is - or omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportCSV(outPath(args), run.meta.Bodies, run.tr)
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "export run metadata and trajectory to JSON (stdout when path is - or omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(outPath(args), *run.meta, run.tr)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	cmd.Flags().StringVar(&plotBody, "body", "", "body name or index (default: every body)")
	cmd.Flags().StringVar(&centralBody, "central", "", "measure revolutions around this body (default: origin)")
	return cmd
}

func outPath(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return "-"
}

type savedRun struct {
	meta *storage.RunMetadata
	tr   *dynamo.Trajectory
}

func loadRun(runID string) (*savedRun, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}
	if tr.Len() == 0 {
		return nil, fmt.Errorf("run %s has no samples", runID)
	}
	return &savedRun{meta: meta, tr: tr}, nil
}

// bodyIndex resolves a body by name, falling back to a numeric index.
func (r *savedRun) bodyIndex(spec string) (int, error) {
	for i, name := range r.meta.Bodies {
		if name == spec {
			return i, nil
		}
	}
	var i int
	if _, err := fmt.Sscanf(spec, "%d", &i); err == nil && i >= 0 && i < r.tr.NumBodies() {
		return i, nil
	}
	return 0, fmt.Errorf("unknown body %q (have %v)", spec, r.meta.Bodies)
}

func (r *savedRun) bodies(spec string) ([]int, error) {
	if spec == "" {
		all := make([]int, r.tr.NumBodies())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	i, err := r.bodyIndex(spec)
	if err != nil {
		return nil, err
	}
	return []int{i}, nil
}

func (r *savedRun) name(i int) string {
	if i < len(r.meta.Bodies) {
		return r.meta.Bodies[i]
	}
	return fmt.Sprintf("body%d", i)
}

// energy recomputes the total energy of every finite sample from the stored
// masses and G.
func (r *savedRun) energy() ([]float64, error) {
	nb, err := physics.NewNBody(r.meta.Masses, physics.WithG(r.meta.G))
	if err != nil {
		return nil, err
	}
	if nb.StateDim() != len(r.tr.States[0]) {
		return nil, &dynamo.ShapeError{StateLen: len(r.tr.States[0]), NumMasses: nb.NumBodies()}
	}
	series := make([]float64, 0, r.tr.Len())
	for _, x := range r.tr.States {
		if x.IsValid() {
			series = append(series, nb.Energy(x))
		}
	}
	return series, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSPAN\tDT\tSTRATEGY\tMETHOD\tSAMPLES\tENERGY DRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4gs\t%.4gs\t%s\t%s\t%d\t%.3e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.T1-run.T0,
			run.Dt,
			run.Strategy,
			run.Method,
			run.Samples,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Header(fmt.Sprintf("%s  %s/%s", run.meta.ID, run.meta.Strategy, run.meta.Method)))
	fmt.Printf("samples: %d\n\n", run.tr.Len())

	if plotOrbit || svgPath != "" {
		if plotOrbit {
			out, err := viz.RenderOrbits(run.tr, run.meta.Bodies, plotWidth/2, plotHeight*2, theme())
			if err != nil {
				return err
			}
			fmt.Println(out)
		}
		if svgPath != "" {
			svg, err := export.OrbitsToSVG(run.tr, run.meta.Bodies, 800, theme())
			if err != nil {
				return err
			}
			if err := export.SaveSVG(svgPath, svg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", svgPath)
		}
		return nil
	}

	if plotEnergy {
		series, err := run.energy()
		if err != nil {
			return err
		}
		fmt.Println(viz.SeriesChart(series, "total energy (J)", plotWidth, plotHeight))
		return nil
	}

	idx, err := run.bodies(plotBody)
	if err != nil {
		return err
	}
	for _, i := range idx {
		chart, err := viz.PositionChart(run.tr, i, plotComponent, run.name(i), plotWidth, plotHeight)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}

	idx, err := run.bodies(plotBody)
	if err != nil {
		return err
	}

	center := -1
	if centralBody != "" {
		if center, err = run.bodyIndex(centralBody); err != nil {
			return err
		}
	}

	fmt.Println(viz.Header("period analysis: " + run.meta.ID))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tFFT PERIOD (s)\tREVOLUTION PERIOD (s)\tPERIOD (days)")

	for _, i := range idx {
		if i == center {
			continue
		}
		xs, ys := run.tr.Positions(i)
		if center >= 0 {
			cxs, cys := run.tr.Positions(center)
			for k := range xs {
				xs[k] -= cxs[k]
				ys[k] -= cys[k]
			}
		}

		fft := "-"
		if p, err := analysis.DominantPeriod(run.tr.Times, xs); err == nil {
			fft = fmt.Sprintf("%.6g", p)
		}
		rev, days := "-", "-"
		if p, err := analysis.CrossingPeriod(run.tr.Times, xs, ys, 0, 0); err == nil {
			rev = fmt.Sprintf("%.6g", p)
			days = fmt.Sprintf("%.4f", p/86400)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", run.name(i), fft, rev, days)
	}
	return w.Flush()
}
