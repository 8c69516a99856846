package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// DefaultStepper is the update rule of the fixed-step driver.
const DefaultStepper = "symplectic-euler"

var steppers = map[string]func() dynamo.Stepper{
	"symplectic-euler": func() dynamo.Stepper { return NewSymplecticEuler() },
	"euler":            func() dynamo.Stepper { return NewEuler() },
	"rk4":              func() dynamo.Stepper { return NewRK4() },
	"verlet":           func() dynamo.Stepper { return NewVerlet() },
	"leapfrog":         func() dynamo.Stepper { return NewLeapfrog() },
	"rk45":             func() dynamo.Stepper { return NewRK45() },
	"rk23":             func() dynamo.Stepper { return NewRK23() },
}

// NewStepper returns a fresh stepper. Steppers keep scratch buffers, so each
// run needs its own.
func NewStepper(name string) (dynamo.Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrConfiguration, name)
	}
	return fn(), nil
}

func Steppers() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
