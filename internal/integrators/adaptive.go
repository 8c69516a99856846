package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultRTol     = 1e-8
	DefaultATol     = 1e-8
	DefaultMaxSteps = 1_000_000
)

// Stats counts the work done by one adaptive solve.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

// Adaptive integrates with an embedded Runge-Kutta pair, choosing its own
// internal steps and reporting the solution at requested times through cubic
// Hermite interpolation.
type Adaptive struct {
	Tableau  *Tableau
	RTol     float64
	ATol     float64
	MaxSteps int
	// MaxStep bounds the internal step when positive.
	MaxStep float64
	// FirstStep overrides the initial step heuristic when positive.
	FirstStep float64
	// Progress is called after each output sample.
	Progress dynamo.ProgressFunc

	safety   float64
	minScale float64
	maxScale float64
}

func NewAdaptive(tb *Tableau) *Adaptive {
	return &Adaptive{
		Tableau:  tb,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
		MaxSteps: DefaultMaxSteps,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func NewRK45() *Adaptive { return NewAdaptive(DormandPrince) }
func NewRK23() *Adaptive { return NewAdaptive(BogackiShampine) }

func (a *Adaptive) Method() string { return a.Tableau.Name }

func (a *Adaptive) validate() error {
	if a.Tableau == nil {
		return fmt.Errorf("%w: adaptive solver has no tableau", dynamo.ErrConfiguration)
	}
	if !(a.RTol > 0) || math.IsInf(a.RTol, 0) {
		return &dynamo.ConfigurationError{Field: "rtol", Value: a.RTol, Reason: "must be positive"}
	}
	if !(a.ATol >= 0) || math.IsInf(a.ATol, 0) {
		return &dynamo.ConfigurationError{Field: "atol", Value: a.ATol, Reason: "must be non-negative"}
	}
	if a.MaxSteps <= 0 {
		return &dynamo.ConfigurationError{Field: "max steps", Value: float64(a.MaxSteps), Reason: "must be positive"}
	}
	return nil
}

func (a *Adaptive) failure(t float64, steps int, msg string) error {
	return &dynamo.IntegrationFailure{Method: a.Tableau.Name, Time: t, Steps: steps, Message: msg}
}

// Step advances x from t to t+dt, taking as many internal steps as the
// tolerances require. It lets an adaptive pair stand in for a fixed stepper.
func (a *Adaptive) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	tr, _, err := a.Solve(sys, x, t, t+dt, []float64{t + dt})
	if err != nil {
		return nil, err
	}
	return tr.Final(), nil
}

// Solve integrates from (t0, x0) to t1 and samples the solution at every
// time in tEval, which must be non-decreasing and inside [t0, t1]. Nothing is
// returned on failure.
func (a *Adaptive) Solve(sys dynamo.System, x0 dynamo.State, t0, t1 float64, tEval []float64) (*dynamo.Trajectory, Stats, error) {
	var stats Stats
	if err := a.validate(); err != nil {
		return nil, stats, err
	}
	if !(t1 > t0) {
		return nil, stats, &dynamo.ConfigurationError{Field: "time span", Value: t1 - t0, Reason: "t1 must be greater than t0"}
	}
	for k, te := range tEval {
		if te < t0 || te > t1 || (k > 0 && te < tEval[k-1]) {
			return nil, stats, &dynamo.ConfigurationError{Field: "evaluation time", Value: te, Reason: "must be sorted and inside the span"}
		}
	}

	tb := a.Tableau
	n := len(x0)
	stages := tb.Stages()
	k := make([]dynamo.State, stages+1)
	scratch := make(dynamo.State, n)
	yNew := make(dynamo.State, n)
	errVec := make([]float64, n)

	derive := func(t float64, x dynamo.State) (dynamo.State, error) {
		stats.Evaluations++
		return sys.Derive(t, x)
	}

	y := x0.Clone()
	t := t0
	f0, err := derive(t, y)
	if err != nil {
		return nil, stats, err
	}

	h := a.FirstStep
	if h <= 0 {
		h, err = a.initialStep(derive, t, y, f0, t1-t0)
		if err != nil {
			return nil, stats, err
		}
	}
	if a.MaxStep > 0 && h > a.MaxStep {
		h = a.MaxStep
	}

	exponent := -1.0 / float64(tb.ErrorOrder+1)
	tr := dynamo.NewTrajectory(len(tEval))
	next := 0

	emit := func(te float64, x dynamo.State) {
		tr.Append(te, x)
		next++
		if a.Progress != nil {
			a.Progress(next, len(tEval), te)
		}
	}

	for next < len(tEval) && tEval[next] == t {
		emit(t, y.Clone())
	}

	for t < t1 {
		if stats.Steps >= a.MaxSteps {
			return nil, stats, a.failure(t, stats.Steps, fmt.Sprintf("maximum number of steps (%d) exceeded", a.MaxSteps))
		}

		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		if h < minStep {
			h = minStep
		}
		if a.MaxStep > 0 && h > a.MaxStep {
			h = a.MaxStep
		}

		rejected := false
		var errNorm float64
		var hTaken, tNew float64
		for {
			hTaken = h
			tNew = t + hTaken
			if tNew >= t1 {
				tNew = t1
				hTaken = t1 - t
			}

			k[0] = f0
			for s := 1; s < stages; s++ {
				copy(scratch, y)
				for j, aij := range tb.A[s] {
					if aij != 0 {
						floats.AddScaled(scratch, hTaken*aij, k[j])
					}
				}
				k[s], err = derive(t+tb.C[s]*hTaken, scratch)
				if err != nil {
					return nil, stats, err
				}
			}

			copy(yNew, y)
			for s, b := range tb.B {
				if b != 0 {
					floats.AddScaled(yNew, hTaken*b, k[s])
				}
			}
			k[stages], err = derive(tNew, yNew)
			if err != nil {
				return nil, stats, err
			}

			for i := range errVec {
				errVec[i] = 0
			}
			for s, e := range tb.E {
				if e != 0 {
					floats.AddScaled(errVec, hTaken*e, k[s])
				}
			}
			errNorm = a.errorNorm(errVec, y, yNew)

			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				return nil, stats, a.failure(t, stats.Steps, "non-finite error estimate")
			}

			if errNorm < 1 {
				scale := a.maxScale
				if errNorm > 0 {
					scale = math.Min(a.maxScale, a.safety*math.Pow(errNorm, exponent))
				}
				if rejected && scale > 1 {
					scale = 1
				}
				h = hTaken * scale
				break
			}

			stats.Rejected++
			h = hTaken * math.Max(a.minScale, a.safety*math.Pow(errNorm, exponent))
			rejected = true
			if h < minStep {
				return nil, stats, a.failure(t, stats.Steps, "required step size is below machine precision")
			}
		}

		stats.Steps++
		f1 := k[stages]
		for next < len(tEval) && tEval[next] <= tNew {
			te := tEval[next]
			var xe dynamo.State
			if te == tNew {
				xe = yNew.Clone()
			} else {
				xe = hermite(y, yNew, f0, f1, t, hTaken, te)
			}
			emit(te, xe)
		}

		y, yNew = yNew, y
		f0 = f1
		t = tNew
	}

	return tr, stats, nil
}

// errorNorm is the RMS of err/(atol + rtol*max(|y|, |yNew|)).
func (a *Adaptive) errorNorm(errVec []float64, y, yNew dynamo.State) float64 {
	if len(errVec) == 0 {
		return 0
	}
	sum := 0.0
	for i, e := range errVec {
		sc := a.ATol + a.RTol*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
		r := e / sc
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(errVec)))
}

func (a *Adaptive) rms(v, scale []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for i := range v {
		r := v[i] / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

// initialStep follows Hairer, Norsett and Wanner's starting step heuristic.
func (a *Adaptive) initialStep(derive func(float64, dynamo.State) (dynamo.State, error), t0 float64, y0, f0 dynamo.State, span float64) (float64, error) {
	n := len(y0)
	if n == 0 {
		return span, nil
	}

	scale := make([]float64, n)
	for i, v := range y0 {
		scale[i] = a.ATol + a.RTol*math.Abs(v)
	}
	d0 := a.rms(y0, scale)
	d1 := a.rms(f0, scale)

	h0 := 0.01 * d0 / d1
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	}
	h0 = math.Min(h0, span)

	y1 := make(dynamo.State, n)
	floats.AddScaledTo(y1, y0, h0, f0)
	f1, err := derive(t0+h0, y1)
	if err != nil {
		return 0, err
	}

	diff := make([]float64, n)
	floats.SubTo(diff, f1, f0)
	d2 := a.rms(diff, scale) / h0

	order := float64(a.Tableau.ErrorOrder + 1)
	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1/order)
	}

	return math.Min(math.Min(100*h0, h1), span), nil
}

// hermite evaluates the cubic through (t0, y0, f0) and (t0+h, y1, f1) at te.
func hermite(y0, y1, f0, f1 dynamo.State, t0, h, te float64) dynamo.State {
	th := (te - t0) / h
	th2 := th * th
	th3 := th2 * th

	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2

	out := make(dynamo.State, len(y0))
	for i := range out {
		out[i] = h00*y0[i] + h*h10*f0[i] + h01*y1[i] + h*h11*f1[i]
	}
	return out
}
