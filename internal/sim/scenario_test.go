package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

var _ = Describe("Earth around the Sun for one year", func() {
	masses := []float64{earthMass, sunMass}
	x0 := dynamo.State{1.471e11, 0, 0, 30286.4, 0, 0, 0, 0}
	t1 := 3.156e7

	check := func(tr *dynamo.Trajectory) {
		final := tr.Final()
		Expect(final.IsValid()).To(BeTrue())

		// planet back near perihelion
		Expect(math.Abs(final[0]-1.471e11) / 1.471e11).To(BeNumerically("<", 0.01))

		// the sun only wobbles by about m_earth/m_sun of the orbit
		for _, x := range tr.States {
			sx, sy := x.Position(1).X, x.Position(1).Y
			Expect(math.Hypot(sx, sy)).To(BeNumerically("<", 1e7))
		}
	}

	It("closes the orbit with the fixed-step driver", func() {
		tr, err := sim.RunDifferenceSimulation(masses, x0, 0, t1, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(365))
		Expect(tr.Times[364]).To(Equal(364 * day))
		check(tr)
	})

	It("closes the orbit with the adaptive driver", func() {
		tr, err := sim.RunContinuousSimulation(masses, x0, 0, t1, day)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(367))
		Expect(tr.Times[tr.Len()-1]).To(Equal(t1))
		check(tr)
	})

	It("agrees between rk45 and rk23", func() {
		a, err := sim.RunContinuousSimulation(masses, x0, 0, t1, 10*day)
		Expect(err).NotTo(HaveOccurred())
		b, err := sim.RunContinuousSimulation(masses, x0, 0, t1, 10*day, sim.WithMethod("rk23"))
		Expect(err).NotTo(HaveOccurred())

		pa, pb := a.Final().Position(0), b.Final().Position(0)
		Expect(math.Hypot(pa.X-pb.X, pa.Y-pb.Y) / 1.471e11).To(BeNumerically("<", 1e-4))
	})
})
