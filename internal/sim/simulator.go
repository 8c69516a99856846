package sim

import (
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/logging"
)

// Simulator drives a System with either the adaptive or the fixed-step
// strategy. Runs are synchronous; a Simulator must not be shared between
// concurrent runs because metrics accumulate per run.
type Simulator struct {
	sys       dynamo.System
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	log       logr.Logger
}

type Option func(*Simulator)

func WithLogger(log logr.Logger) Option {
	return func(s *Simulator) { s.log = log }
}

func New(sys dynamo.System, opts ...Option) *Simulator {
	s := &Simulator{
		sys:       sys,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		log:       logging.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithName("sim")
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run dispatches to RunContinuous or RunDiscrete.
func (s *Simulator) Run(strategy string, x0 dynamo.State, cfg Config) (*Result, error) {
	switch strategy {
	case "", StrategyAdaptive:
		return s.RunContinuous(x0, cfg)
	case StrategyFixed:
		return s.RunDiscrete(x0, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", dynamo.ErrConfiguration, strategy)
	}
}

func (s *Simulator) validate(x0 dynamo.State, cfg Config) error {
	if len(x0) != s.sys.StateDim() {
		return &dynamo.ShapeError{StateLen: len(x0), NumMasses: s.sys.StateDim() / dynamo.BodyStride}
	}
	for i, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &dynamo.ConfigurationError{Field: fmt.Sprintf("state[%d]", i), Value: v, Reason: "must be finite"}
		}
	}
	return cfg.validate()
}

// RunContinuous integrates with an adaptive embedded Runge-Kutta pair and
// samples the solution on Config.EvalTimes. Any solver failure is returned
// without a trajectory.
func (s *Simulator) RunContinuous(x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	method := cfg.Method
	if method == "" {
		method = integrators.DormandPrince.Name
	}
	tb, err := integrators.LookupTableau(method)
	if err != nil {
		return nil, err
	}

	solver := integrators.NewAdaptive(tb)
	if cfg.RTol > 0 {
		solver.RTol = cfg.RTol
	}
	if cfg.ATol > 0 {
		solver.ATol = cfg.ATol
	}
	if cfg.MaxSteps > 0 {
		solver.MaxSteps = cfg.MaxSteps
	}
	solver.MaxStep = cfg.MaxStep
	solver.FirstStep = cfg.FirstStep
	solver.Progress = throttle(cfg.Progress, cfg.ProgressEvery)

	ts := cfg.EvalTimes()
	s.log.V(logging.DEBUG).Info("starting adaptive run",
		"method", method, "t0", cfg.T0, "t1", cfg.T1, "samples", len(ts),
		"rtol", solver.RTol, "atol", solver.ATol)

	tr, stats, err := solver.Solve(s.sys, x0, cfg.T0, cfg.T1, ts)
	if err != nil {
		s.log.Error(err, "adaptive run failed", "method", method, "steps", stats.Steps)
		return nil, err
	}

	result := s.finish(tr, method, x0)
	result.Stats = stats
	s.log.V(logging.DEBUG).Info("adaptive run complete",
		"steps", stats.Steps, "rejected", stats.Rejected, "evaluations", stats.Evaluations)
	return result, nil
}

// RunDiscrete records the state before each step, so row k is the state at
// T0 + k*Dt. The step out of the last row is never taken: the stepper runs
// NumSteps-1 times, and a failure at that endpoint (a SingularityError from
// bodies meeting there, for one) is not raised. Divergence shows up as
// non-finite rows rather than an error.
func (s *Simulator) RunDiscrete(x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	n := cfg.NumSteps()
	if n < 1 {
		return nil, &dynamo.ConfigurationError{Field: "dt", Value: cfg.Dt, Reason: "larger than the time span"}
	}

	method := cfg.Method
	if method == "" {
		method = integrators.DefaultStepper
	}
	stepper, err := integrators.NewStepper(method)
	if err != nil {
		return nil, err
	}

	s.log.V(logging.DEBUG).Info("starting fixed-step run",
		"method", method, "t0", cfg.T0, "dt", cfg.Dt, "steps", n)

	tr := &dynamo.Trajectory{
		Times:  make([]float64, n),
		States: make([]dynamo.State, n),
	}
	progress := throttle(cfg.Progress, cfg.ProgressEvery)

	x := x0.Clone()
	for k := 0; k < n; k++ {
		t := cfg.T0 + float64(k)*cfg.Dt
		tr.Times[k] = t
		tr.States[k] = x

		if progress != nil {
			progress(k+1, n, t)
		}
		if k == n-1 {
			break
		}

		next, err := stepper.Step(s.sys, x, t, cfg.Dt)
		if err != nil {
			s.log.Error(err, "fixed-step run failed", "step", k, "t", t)
			return nil, err
		}
		x = next
	}

	result := s.finish(tr, method, x0)
	result.Stats.Steps = n - 1
	for k, row := range tr.States {
		if !row.IsValid() {
			result.Diverged = true
			result.FirstNonFinite = k
			s.log.Info("trajectory diverged", "row", k, "t", tr.Times[k])
			break
		}
	}
	return result, nil
}

func (s *Simulator) finish(tr *dynamo.Trajectory, method string, x0 dynamo.State) *Result {
	for _, m := range s.metrics {
		m.Reset()
	}
	for k, x := range tr.States {
		t := tr.Times[k]
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, o := range s.observers {
			o.OnSample(k, t, x)
		}
	}

	result := &Result{
		Trajectory:     tr,
		Method:         method,
		Metrics:        make(map[string]float64, len(s.metrics)),
		FirstNonFinite: -1,
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if h, ok := s.sys.(dynamo.Hamiltonian); ok && tr.Len() > 0 {
		e0 := h.Energy(x0)
		if e0 != 0 {
			result.EnergyDrift = math.Abs(h.Energy(tr.Final())-e0) / math.Abs(e0)
		}
	}
	return result
}

// throttle forwards every n-th call and the last one.
func throttle(fn dynamo.ProgressFunc, every int) dynamo.ProgressFunc {
	if fn == nil {
		return nil
	}
	if every < 1 {
		every = 1
	}
	return func(step, total int, t float64) {
		if step%every == 0 || step == total {
			fn(step, total, t)
		}
	}
}
