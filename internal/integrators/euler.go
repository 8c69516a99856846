package integrators

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Euler is the explicit first-order method: x += f(t, x)*dt for every
// component, so positions advance with the velocity from before the step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	floats.AddScaledTo(result, x, dt, dx)
	return result, nil
}

// SymplecticEuler is the semi-implicit Euler rule used by the fixed-step
// driver: v += a*dt, then x += v_new*dt. It requires the interleaved body
// layout.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (s *SymplecticEuler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkLayout(x); err != nil {
		return nil, err
	}
	dx, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, len(x))
	for i := 0; i < x.NumBodies(); i++ {
		v := r2.Add(x.Velocity(i), r2.Scale(dt, dx.Velocity(i)))
		result.SetVelocity(i, v)
		result.SetPosition(i, r2.Add(x.Position(i), r2.Scale(dt, v)))
	}
	return result, nil
}

func checkLayout(x dynamo.State) error {
	if len(x)%dynamo.BodyStride != 0 {
		return &dynamo.ShapeError{StateLen: len(x), NumMasses: len(x) / dynamo.BodyStride}
	}
	return nil
}
