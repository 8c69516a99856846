package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

func TestFixedSteppersAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		stepper dynamo.Stepper
		tol     float64
	}{
		{"euler", NewEuler(), 2e-2},
		{"symplectic-euler", NewSymplecticEuler(), 2e-2},
		{"rk4", NewRK4(), 1e-8},
		{"verlet", NewVerlet(), 1e-4},
		{"leapfrog", NewLeapfrog(), 1e-4},
	}

	dyn := &harmonicOscillator{}
	dt := 0.01
	steps := 100

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := circle(0)
			for i := 0; i < steps; i++ {
				var err error
				x, err = tt.stepper.Step(dyn, x, float64(i)*dt, dt)
				if err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
			}

			if d := maxDiff(x, circle(float64(steps)*dt)); d > tt.tol {
				t.Errorf("error too large: %e > %e", d, tt.tol)
			}
		})
	}
}

func TestSymplecticEulerUpdateOrder(t *testing.T) {
	dyn := &harmonicOscillator{}
	x := dynamo.State{1, 0, 0, 0}
	dt := 0.1

	got, err := NewSymplecticEuler().Step(dyn, x, 0, dt)
	if err != nil {
		t.Fatal(err)
	}

	// v_new = 0 + (-1)(0.1) = -0.1, x_new = 1 + (-0.1)(0.1) = 0.99
	if math.Abs(got[2]+0.1) > 1e-15 {
		t.Errorf("vx = %v, want -0.1", got[2])
	}
	if math.Abs(got[0]-0.99) > 1e-15 {
		t.Errorf("x = %v, want 0.99", got[0])
	}

	// explicit Euler moves the position with the old velocity
	got, err = NewEuler().Step(dyn, x, 0, dt)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 {
		t.Errorf("euler x = %v, want 1", got[0])
	}
}

func TestSteppersDoNotMutateInput(t *testing.T) {
	dyn := &harmonicOscillator{}
	for _, name := range Steppers() {
		t.Run(name, func(t *testing.T) {
			s, err := NewStepper(name)
			if err != nil {
				t.Fatal(err)
			}
			x := circle(0.3)
			before := x.Clone()
			out, err := s.Step(dyn, x, 0, 0.05)
			if err != nil {
				t.Fatal(err)
			}
			if maxDiff(x, before) != 0 {
				t.Error("input state was modified")
			}
			if len(out) != len(x) {
				t.Errorf("len = %d, want %d", len(out), len(x))
			}
		})
	}
}

func TestFreeParticleMovesLinearly(t *testing.T) {
	dyn := &freeParticle{}
	for _, name := range Steppers() {
		s, _ := NewStepper(name)
		x := dynamo.State{1, 2, 3, -4}
		for i := 0; i < 10; i++ {
			var err error
			x, err = s.Step(dyn, x, float64(i), 1)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
		}
		want := dynamo.State{31, -38, 3, -4}
		if d := maxDiff(x, want); d > 1e-9 {
			t.Errorf("%s: got %v, want %v", name, x, want)
		}
	}
}

func TestStepperPropagatesDeriveError(t *testing.T) {
	sentinel := &dynamo.SingularityError{I: 0, J: 1}
	dyn := &failingSystem{err: sentinel}
	for _, name := range Steppers() {
		s, _ := NewStepper(name)
		_, err := s.Step(dyn, dynamo.State{0, 0, 0, 0}, 0, 0.1)
		if !errors.Is(err, dynamo.ErrSingularity) {
			t.Errorf("%s: got %v, want singularity", name, err)
		}
	}
}

func TestSymplecticEulerRejectsBadLayout(t *testing.T) {
	_, err := NewSymplecticEuler().Step(&freeParticle{}, dynamo.State{1, 2, 3}, 0, 0.1)
	if !errors.Is(err, dynamo.ErrShape) {
		t.Errorf("got %v, want shape error", err)
	}
}

func TestNewStepperUnknown(t *testing.T) {
	_, err := NewStepper("midpoint")
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want configuration error", err)
	}
}

func TestSymplecticEulerEnergyBounded(t *testing.T) {
	dyn := &harmonicOscillator{}
	s := NewSymplecticEuler()
	x := circle(0)
	e0 := dyn.Energy(x)
	dt := 0.01

	maxDrift := 0.0
	for i := 0; i < 20000; i++ {
		var err error
		x, err = s.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
		maxDrift = math.Max(maxDrift, math.Abs(dyn.Energy(x)-e0)/e0)
	}

	// explicit Euler grows without bound; the symplectic rule oscillates
	if maxDrift > 2e-2 {
		t.Errorf("energy drift %e exceeds bound", maxDrift)
	}
}
