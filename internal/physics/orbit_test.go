package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/physics"
)

var _ = Describe("Orbit helpers", func() {
	const (
		peri    = 1.471e11
		aph     = 1.521e11
		sunMass = 1.989e30
	)

	It("derives ellipse geometry from the apsides", func() {
		a := physics.SemiMajorAxis(peri, aph)
		b := physics.SemiMinorAxis(peri, aph)
		Expect(a).To(BeNumerically("~", 1.496e11, 1))
		Expect(b).To(BeNumerically("<", a))
		Expect(physics.Eccentricity(peri, aph)).To(BeNumerically("~", 0.0167, 1e-4))
	})

	It("gives a period of about one year for the earth", func() {
		mu := physics.G * sunMass
		T := physics.OrbitalPeriod(mu, physics.SemiMajorAxis(peri, aph))
		Expect(T / 86400).To(BeNumerically("~", 365.25, 0.5))
	})

	It("agrees between vis-viva and Kepler's second law at perihelion", func() {
		mu := physics.G * sunMass
		a := physics.SemiMajorAxis(peri, aph)
		b := physics.SemiMinorAxis(peri, aph)
		T := physics.OrbitalPeriod(mu, a)

		kepler := physics.PerihelionSpeed(physics.OrbitalArea(a, b), T, peri)
		visViva := physics.VisViva(mu, peri, a)
		Expect(math.Abs(kepler-visViva) / visViva).To(BeNumerically("<", 1e-12))
		Expect(visViva).To(BeNumerically("~", 30290, 10))
	})

	It("places the body at perihelion moving perpendicular to the radius", func() {
		pos, vel := physics.PerihelionState(physics.DefaultGravity(), sunMass, peri, aph)
		Expect(pos.X).To(Equal(peri))
		Expect(pos.Y).To(BeZero())
		Expect(vel.X).To(BeZero())
		Expect(vel.Y).To(BeNumerically(">", 30000))
	})
})
