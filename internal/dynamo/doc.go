// Package dynamo provides the core primitives shared by the orbit integrators.
//
// The package defines the packed state representation and the interfaces the
// drivers are written against:
//
//   - [State]: flat vector of all bodies, interleaved per body as [x, y, vx, vy]
//   - [Body]: a named point mass with 2D position and velocity
//   - [System]: an ODE system (dX/dt = f(t, X)) such as the N-body model
//   - [Stepper]: a fixed-step update rule
//   - [Trajectory]: sampled times paired with full states
//
// # State Layout
//
// Body i occupies indices [4i, 4i+4) of a [State]:
//
//	x_i  = s[4i]
//	y_i  = s[4i+1]
//	vx_i = s[4i+2]
//	vy_i = s[4i+3]
//
// The time derivative of a state uses the same layout, with velocities in the
// position slots and accelerations in the velocity slots. Every package reads
// and writes bodies through the accessors in this package; nothing else
// hard-codes the stride.
//
// # Errors
//
// Failures are reported with the typed errors in errors.go. Each one matches a
// sentinel through [errors.Is]:
//
//	if errors.Is(err, dynamo.ErrSingularity) {
//	    // two bodies met during a force evaluation
//	}
package dynamo
