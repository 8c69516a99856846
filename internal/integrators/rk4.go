package integrators

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

type RK4 struct {
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) != n {
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	k1, err := sys.Derive(t, x)
	if err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, x, dt*0.5, k1)
	k2, err := sys.Derive(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, x, dt*0.5, k2)
	k3, err := sys.Derive(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}

	floats.AddScaledTo(r.scratch, x, dt, k3)
	k4, err := sys.Derive(t+dt, r.scratch)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result, nil
}
