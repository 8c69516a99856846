// Package physics implements Newtonian point-mass gravity.
//
// The package provides three layers:
//
//   - [Gravity]: the force law with an injected gravitational constant
//   - [Pairwise]: the (N,N) displacement matrix the force law is evaluated over
//   - [NBody]: the ODE system (positions, velocities, accelerations) consumed by
//     the integrators, plus its conserved quantities
//
// orbit.go holds the closed-form two-body relations (vis-viva, Kepler's laws)
// used to build physically consistent initial conditions.
//
// # Units
//
// Nothing in the package assumes SI units. [G] is the SI value and is the
// default, but a [Gravity] can carry any constant, e.g. G = 1 for the
// dimensionless figure-eight orbit.
package physics
