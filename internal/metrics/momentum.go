package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// MomentumDrift is the largest deviation of total linear momentum from its
// first sample, relative to |P_0|. When P_0 is zero the absolute deviation is
// reported instead.
type MomentumDrift struct {
	sys      dynamo.Conserved
	initial  r2.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift(sys dynamo.Conserved) *MomentumDrift {
	return &MomentumDrift{sys: sys}
}

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(x dynamo.State, t float64) {
	p := m.sys.Momentum(x)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	drift := r2.Norm(r2.Sub(p, m.initial))
	if n := r2.Norm(m.initial); n != 0 {
		drift /= n
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r2.Vec{}
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift is the largest |L - L_0| / |L_0|.
type AngularMomentumDrift struct {
	sys      dynamo.Conserved
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift(sys dynamo.Conserved) *AngularMomentumDrift {
	return &AngularMomentumDrift{sys: sys}
}

func (a *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (a *AngularMomentumDrift) Observe(x dynamo.State, t float64) {
	l := a.sys.AngularMomentum(x)
	if a.samples == 0 {
		a.initial = l
	}
	a.samples++

	if a.initial != 0 {
		a.maxDrift = math.Max(a.maxDrift, math.Abs(l-a.initial)/math.Abs(a.initial))
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}
