package sim

import (
	"github.com/go-logr/logr"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

type runOptions struct {
	gravity physics.Gravity
	cfg     Config
	log     *logr.Logger
	metrics []dynamo.Metric
}

type RunOption func(*runOptions)

func WithGravity(g physics.Gravity) RunOption {
	return func(o *runOptions) { o.gravity = g }
}

func WithMethod(method string) RunOption {
	return func(o *runOptions) { o.cfg.Method = method }
}

func WithTolerances(rtol, atol float64) RunOption {
	return func(o *runOptions) { o.cfg.RTol, o.cfg.ATol = rtol, atol }
}

func WithMaxSteps(n int) RunOption {
	return func(o *runOptions) { o.cfg.MaxSteps = n }
}

func WithProgress(every int, fn dynamo.ProgressFunc) RunOption {
	return func(o *runOptions) { o.cfg.ProgressEvery, o.cfg.Progress = every, fn }
}

func WithRunLogger(log logr.Logger) RunOption {
	return func(o *runOptions) { o.log = &log }
}

func WithMetrics(ms ...dynamo.Metric) RunOption {
	return func(o *runOptions) { o.metrics = append(o.metrics, ms...) }
}

func prepare(masses []float64, x0 dynamo.State, t0, t1, dt float64, opts []RunOption) (*Simulator, Config, error) {
	o := runOptions{gravity: physics.DefaultGravity()}
	o.cfg = Config{T0: t0, T1: t1, Dt: dt}
	for _, opt := range opts {
		opt(&o)
	}

	if err := dynamo.ValidateSystem(masses, x0); err != nil {
		return nil, Config{}, err
	}
	nb, err := physics.NewNBody(masses, physics.WithGravity(o.gravity))
	if err != nil {
		return nil, Config{}, err
	}

	var simOpts []Option
	if o.log != nil {
		simOpts = append(simOpts, WithLogger(*o.log))
	}
	s := New(nb, simOpts...)
	for _, m := range o.metrics {
		s.AddMetric(m)
	}
	return s, o.cfg, nil
}

// RunContinuousSimulation integrates the N-body system adaptively and returns
// samples at t0, t0+dt, ... and t1.
func RunContinuousSimulation(masses []float64, x0 dynamo.State, t0, t1, dt float64, opts ...RunOption) (*dynamo.Trajectory, error) {
	s, cfg, err := prepare(masses, x0, t0, t1, dt, opts)
	if err != nil {
		return nil, err
	}
	res, err := s.RunContinuous(x0, cfg)
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}

// RunDifferenceSimulation steps the N-body system with symplectic Euler and
// returns floor((t1-t0)/dt) pre-step rows.
func RunDifferenceSimulation(masses []float64, x0 dynamo.State, t0, t1, dt float64, opts ...RunOption) (*dynamo.Trajectory, error) {
	s, cfg, err := prepare(masses, x0, t0, t1, dt, opts)
	if err != nil {
		return nil, err
	}
	res, err := s.RunDiscrete(x0, cfg)
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}
