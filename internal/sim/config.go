package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
)

const (
	StrategyAdaptive = "adaptive"
	StrategyFixed    = "fixed"
)

// Config describes one run over [T0, T1] sampled every Dt.
type Config struct {
	T0 float64
	T1 float64
	Dt float64

	// Method names an adaptive pair (rk45, rk23) for RunContinuous or a
	// stepper for RunDiscrete. Empty selects the driver's default.
	Method string

	RTol      float64
	ATol      float64
	MaxSteps  int
	MaxStep   float64
	FirstStep float64

	// ProgressEvery is the sample interval between Progress calls.
	ProgressEvery int
	Progress      dynamo.ProgressFunc
}

func DefaultConfig() Config {
	return Config{
		T0:            0,
		T1:            3.156e7,
		Dt:            86400,
		RTol:          integrators.DefaultRTol,
		ATol:          integrators.DefaultATol,
		MaxSteps:      integrators.DefaultMaxSteps,
		ProgressEvery: 100,
	}
}

func (c Config) validate() error {
	if math.IsNaN(c.T0) || math.IsInf(c.T0, 0) || math.IsNaN(c.T1) || math.IsInf(c.T1, 0) {
		return &dynamo.ConfigurationError{Field: "time span", Value: c.T1 - c.T0, Reason: "bounds must be finite"}
	}
	if !(c.T1 > c.T0) {
		return &dynamo.ConfigurationError{Field: "time span", Value: c.T1 - c.T0, Reason: "t1 must be greater than t0"}
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return &dynamo.ConfigurationError{Field: "dt", Value: c.Dt, Reason: "must be positive and finite"}
	}
	return nil
}

// NumSteps is floor((T1-T0)/Dt). A quotient within 1e-9 below an integer is
// rounded up so spans built as k*Dt yield exactly k steps.
func (c Config) NumSteps() int {
	q := (c.T1 - c.T0) / c.Dt
	n := math.Floor(q)
	if q-n > 1-1e-9 {
		n++
	}
	return int(n)
}

// EvalTimes is the sample grid of the adaptive driver: T0 + k*Dt for every k
// with a value below T1, then T1 itself. A grid point within 1e-9*Dt of T1
// is T1, the same tolerance NumSteps applies.
func (c Config) EvalTimes() []float64 {
	ts := make([]float64, 0, c.NumSteps()+2)
	end := c.T1 - 1e-9*c.Dt
	for k := 0; ; k++ {
		t := c.T0 + float64(k)*c.Dt
		if t >= end {
			break
		}
		ts = append(ts, t)
	}
	return append(ts, c.T1)
}

// Result is the output of one run.
type Result struct {
	Trajectory *dynamo.Trajectory
	Method     string
	Metrics    map[string]float64
	// EnergyDrift is |E_final - E_0| / |E_0| for systems with an energy.
	EnergyDrift float64
	Stats       integrators.Stats
	// Diverged is set when a fixed-step run produced non-finite rows;
	// FirstNonFinite is the first such row index, or -1.
	Diverged       bool
	FirstNonFinite int
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d samples, energy drift %.3e", r.Method, r.Trajectory.Len(), r.EnergyDrift)
}
