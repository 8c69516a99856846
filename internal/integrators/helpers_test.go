package integrators

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// harmonicOscillator is a single body pulled toward the origin with a = -x.
// Starting from [1, 0, 0, 1] it moves on the unit circle with period 2*pi.
type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return dynamo.BodyStride }

func (h *harmonicOscillator) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[2], x[3], -x[0], -x[1]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3])
}

func circle(t float64) dynamo.State {
	return dynamo.State{math.Cos(t), math.Sin(t), -math.Sin(t), math.Cos(t)}
}

func maxDiff(a, b dynamo.State) float64 {
	m := 0.0
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}

// freeParticle has no forces at all.
type freeParticle struct{}

func (f *freeParticle) StateDim() int { return dynamo.BodyStride }

func (f *freeParticle) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[2], x[3], 0, 0}, nil
}

type failingSystem struct{ err error }

func (f *failingSystem) StateDim() int { return dynamo.BodyStride }

func (f *failingSystem) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return nil, f.err
}

// blowUp is dx/dt = x^2, which leaves every finite bound at t = 1/x0.
type blowUp struct{}

func (b *blowUp) StateDim() int { return 1 }

func (b *blowUp) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[0] * x[0]}, nil
}
