package integrators

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Verlet is velocity Verlet over the interleaved body layout. Forces must not
// depend on velocity.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) ensureScratch(n int) {
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkLayout(x); err != nil {
		return nil, err
	}
	v.ensureScratch(len(x))

	dx, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, len(x))
	n := x.NumBodies()
	dt2 := dt * dt

	for i := 0; i < n; i++ {
		p := r2.Add(x.Position(i), r2.Add(r2.Scale(dt, x.Velocity(i)), r2.Scale(0.5*dt2, dx.Velocity(i))))
		result.SetPosition(i, p)
		v.scratch.SetPosition(i, p)
		v.scratch.SetVelocity(i, x.Velocity(i))
	}

	dxNew, err := sys.Derive(t+dt, v.scratch)
	if err != nil {
		return nil, err
	}

	halfDt := 0.5 * dt
	for i := 0; i < n; i++ {
		a := r2.Add(dx.Velocity(i), dxNew.Velocity(i))
		result.SetVelocity(i, r2.Add(x.Velocity(i), r2.Scale(halfDt, a)))
	}

	return result, nil
}

// Leapfrog is the kick-drift-kick form.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if err := checkLayout(x); err != nil {
		return nil, err
	}
	if len(l.scratch) != len(x) {
		l.scratch = make(dynamo.State, len(x))
	}

	dx, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}

	n := x.NumBodies()
	halfDt := dt * 0.5

	for i := 0; i < n; i++ {
		vHalf := r2.Add(x.Velocity(i), r2.Scale(halfDt, dx.Velocity(i)))
		l.scratch.SetVelocity(i, vHalf)
		l.scratch.SetPosition(i, r2.Add(x.Position(i), r2.Scale(dt, vHalf)))
	}

	dxNew, err := sys.Derive(t+dt, l.scratch)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, len(x))
	for i := 0; i < n; i++ {
		result.SetPosition(i, l.scratch.Position(i))
		result.SetVelocity(i, r2.Add(l.scratch.Velocity(i), r2.Scale(halfDt, dxNew.Velocity(i))))
	}

	return result, nil
}
