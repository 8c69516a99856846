package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// VisViva returns the orbital speed at radius r on an orbit with semi-major
// axis a around a body with gravitational parameter mu = G*M.
func VisViva(mu, r, a float64) float64 {
	return math.Sqrt(mu * (2/r - 1/a))
}

func SemiMajorAxis(perihelion, aphelion float64) float64 {
	return (perihelion + aphelion) / 2
}

// SemiMinorAxis is b = sqrt(perihelion * aphelion).
func SemiMinorAxis(perihelion, aphelion float64) float64 {
	return math.Sqrt(perihelion * aphelion)
}

func Eccentricity(perihelion, aphelion float64) float64 {
	return (aphelion - perihelion) / (aphelion + perihelion)
}

func OrbitalArea(semiMajor, semiMinor float64) float64 {
	return math.Pi * semiMajor * semiMinor
}

// OrbitalPeriod follows Kepler's third law.
func OrbitalPeriod(mu, semiMajor float64) float64 {
	return 2 * math.Pi * math.Sqrt(semiMajor*semiMajor*semiMajor/mu)
}

// PerihelionSpeed uses Kepler's second law: the areal velocity area/period
// equals r*v/2 at perihelion, where velocity is perpendicular to the radius.
func PerihelionSpeed(area, period, perihelion float64) float64 {
	return 2 * area / (period * perihelion)
}

// PerihelionState places an orbiting body at (perihelion, 0) moving in +y at
// the vis-viva speed around a central mass resting at the origin.
func PerihelionState(g Gravity, centralMass, perihelion, aphelion float64) (pos, vel r2.Vec) {
	a := SemiMajorAxis(perihelion, aphelion)
	v := VisViva(g.G*centralMass, perihelion, a)
	return r2.Vec{X: perihelion}, r2.Vec{Y: v}
}
