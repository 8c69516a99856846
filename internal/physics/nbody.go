package physics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

type NBody struct {
	Masses  []float64
	Names   []string
	Gravity Gravity
}

type Option func(*NBody)

func WithGravity(g Gravity) Option {
	return func(nb *NBody) { nb.Gravity = g }
}

func WithG(g float64) Option {
	return func(nb *NBody) { nb.Gravity.G = g }
}

func WithNames(names ...string) Option {
	return func(nb *NBody) { nb.Names = append([]string(nil), names...) }
}

// NewNBody creates the system for the given masses. Masses are copied and must
// be positive and finite.
func NewNBody(masses []float64, opts ...Option) (*NBody, error) {
	if err := dynamo.ValidateMasses(masses); err != nil {
		return nil, err
	}
	nb := &NBody{
		Masses:  append([]float64(nil), masses...),
		Gravity: DefaultGravity(),
	}
	for _, opt := range opts {
		opt(nb)
	}
	if nb.Gravity.G <= 0 || math.IsInf(nb.Gravity.G, 0) || math.IsNaN(nb.Gravity.G) {
		return nil, &dynamo.ConfigurationError{Field: "G", Value: nb.Gravity.G, Reason: "must be positive and finite"}
	}
	return nb, nil
}

func (nb *NBody) NumBodies() int { return len(nb.Masses) }
func (nb *NBody) StateDim() int  { return len(nb.Masses) * dynamo.BodyStride }

// Derive implements dynamo.System. t is unused: the field is time invariant.
func (nb *NBody) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return Derivative(t, x, nb.Masses, nb.Gravity)
}

func (nb *NBody) Accelerations(x dynamo.State) ([]r2.Vec, error) {
	return nb.Gravity.Accelerations(x, nb.Masses)
}

// Derivative maps a state to its time derivative in the same layout:
// [vx, vy, ax, ay] per body.
func Derivative(t float64, x dynamo.State, masses []float64, g Gravity) (dynamo.State, error) {
	acc, err := g.Accelerations(x, masses)
	if err != nil {
		return nil, err
	}

	dx := make(dynamo.State, len(x))
	for i := range masses {
		dx.SetPosition(i, x.Velocity(i))
		dx.SetVelocity(i, acc[i])
	}
	return dx, nil
}

func (nb *NBody) Bodies(x dynamo.State) ([]dynamo.Body, error) {
	return dynamo.Unpack(x, nb.Masses, nb.Names)
}

// Energy is the total kinetic plus potential energy.
func (nb *NBody) Energy(x dynamo.State) float64 {
	n := nb.NumBodies()
	ke := 0.0
	pe := 0.0

	for i := 0; i < n; i++ {
		v := x.Velocity(i)
		ke += 0.5 * nb.Masses[i] * r2.Norm2(v)

		for j := i + 1; j < n; j++ {
			r := r2.Norm(r2.Sub(x.Position(j), x.Position(i)))
			pe -= nb.Gravity.G * nb.Masses[i] * nb.Masses[j] / r
		}
	}

	return ke + pe
}

func (nb *NBody) Momentum(x dynamo.State) r2.Vec {
	var p r2.Vec
	for i, m := range nb.Masses {
		p = r2.Add(p, r2.Scale(m, x.Velocity(i)))
	}
	return p
}

// AngularMomentum is the z component of sum(m * r x v) about the origin.
func (nb *NBody) AngularMomentum(x dynamo.State) float64 {
	L := 0.0
	for i, m := range nb.Masses {
		L += m * r2.Cross(x.Position(i), x.Velocity(i))
	}
	return L
}

func (nb *NBody) CenterOfMass(x dynamo.State) (pos, vel r2.Vec) {
	total := 0.0
	for i, m := range nb.Masses {
		pos = r2.Add(pos, r2.Scale(m, x.Position(i)))
		vel = r2.Add(vel, r2.Scale(m, x.Velocity(i)))
		total += m
	}
	return r2.Scale(1/total, pos), r2.Scale(1/total, vel)
}
