package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

// Experiment turns a run config into a configured simulator and executes it.
type Experiment struct {
	cfg      *config.Config
	catalog  *config.Catalog
	registry *Registry
	log      logr.Logger
	progress dynamo.ProgressFunc

	system    *config.System
	nbody     *physics.NBody
	simulator *sim.Simulator
}

type Option func(*Experiment)

func WithCatalog(cat *config.Catalog) Option {
	return func(e *Experiment) { e.catalog = cat }
}

func WithLogger(log logr.Logger) Option {
	return func(e *Experiment) { e.log = log }
}

// WithProgress installs a callback that runs alongside progress logging.
func WithProgress(fn dynamo.ProgressFunc) Option {
	return func(e *Experiment) { e.progress = fn }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      logging.Log,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = config.DefaultCatalog()
	}
	return e
}

// Setup resolves the bodies and attaches the default metrics. extra metrics
// are looked up by name in the registry.
func (e *Experiment) Setup(extra ...string) error {
	sys, err := e.cfg.Build(e.catalog)
	if err != nil {
		return err
	}
	nb, err := sys.NBody()
	if err != nil {
		return err
	}

	s := e.newSimulator(nb)
	for _, name := range extra {
		m, err := e.registry.GetMetric(name, nb, e.cfg.EscapeRadius)
		if err != nil {
			return err
		}
		s.AddMetric(m)
	}

	e.system = sys
	e.nbody = nb
	e.simulator = s
	return nil
}

func (e *Experiment) newSimulator(nb *physics.NBody) *sim.Simulator {
	s := sim.New(nb, sim.WithLogger(e.log))
	for _, m := range e.registry.DefaultMetrics(nb, e.cfg.EscapeRadius) {
		s.AddMetric(m)
	}
	return s
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog := logging.NewSimulationLogger(e.log)
	slog.LogParams(e.params())

	simCfg := e.cfg.SimConfig()
	simCfg.Progress = func(step, total int, t float64) {
		slog.LogProgress(step, total, t)
		if e.progress != nil {
			e.progress(step, total, t)
		}
	}

	res, err := e.simulator.Run(e.cfg.Strategy, e.system.State, simCfg)
	if err != nil {
		slog.LogError(err, "simulation failed", "strategy", e.cfg.Strategy, "method", e.cfg.StepMethod())
		return nil, err
	}

	summary := map[string]float64{
		"samples":      float64(res.Trajectory.Len()),
		"steps":        float64(res.Stats.Steps),
		"energy_drift": res.EnergyDrift,
	}
	for k, v := range res.Metrics {
		summary[k] = v
	}
	slog.LogSummary(summary)
	slog.LogRuntime()
	return res, nil
}

// Compare runs the same initial state with each method concurrently.
// Results are in method order.
func (e *Experiment) Compare(ctx context.Context, methods []string) ([]*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	jobs := make([]sim.Job, len(methods))
	for i, method := range methods {
		strategy, err := e.registry.StrategyFor(method)
		if err != nil {
			return nil, err
		}
		cfg := e.cfg.SimConfig()
		cfg.Method = method
		jobs[i] = sim.Job{Name: method, Strategy: strategy, Config: cfg}
	}

	ens := sim.NewEnsemble(func() *sim.Simulator { return e.newSimulator(e.nbody) })
	return ens.Run(ctx, e.system.State, jobs)
}

func (e *Experiment) params() map[string]any {
	return map[string]any{
		"name":     e.cfg.Name,
		"strategy": e.cfg.Strategy,
		"method":   e.cfg.StepMethod(),
		"t0":       e.cfg.T0,
		"duration": e.cfg.Duration,
		"dt":       e.cfg.Dt,
		"bodies":   e.system.Names,
		"G":        e.system.Gravity.G,
	}
}

// SetProgress replaces the progress callback for later runs.
func (e *Experiment) SetProgress(fn dynamo.ProgressFunc) { e.progress = fn }

func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }
func (e *Experiment) System() *config.System      { return e.system }
func (e *Experiment) NBody() *physics.NBody       { return e.nbody }
func (e *Experiment) Config() *config.Config      { return e.cfg }
