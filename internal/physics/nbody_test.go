package physics_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

var _ = Describe("NBody", func() {
	var (
		nb *physics.NBody
		x  dynamo.State
	)

	BeforeEach(func() {
		var err error
		nb, err = physics.NewNBody([]float64{1, 2}, physics.WithG(1), physics.WithNames("a", "b"))
		Expect(err).NotTo(HaveOccurred())
		x = dynamo.State{
			-1, 0, 0, -0.5,
			1, 0, 0, 0.25,
		}
	})

	It("rejects non-positive masses", func() {
		_, err := physics.NewNBody([]float64{1, 0})
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

		_, err = physics.NewNBody(nil)
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})

	It("rejects a non-positive G", func() {
		_, err := physics.NewNBody([]float64{1}, physics.WithG(0))
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})

	It("copies the masses", func() {
		masses := []float64{1, 2}
		sys, err := physics.NewNBody(masses)
		Expect(err).NotTo(HaveOccurred())
		masses[0] = 99
		Expect(sys.Masses[0]).To(Equal(1.0))
		Expect(sys.StateDim()).To(Equal(8))
	})

	It("derives velocities into position slots and accelerations into velocity slots", func() {
		dx, err := nb.Derive(0, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(dx).To(HaveLen(8))

		Expect(dx.Position(0)).To(Equal(x.Velocity(0)))
		Expect(dx.Position(1)).To(Equal(x.Velocity(1)))

		// separation 2, so a0 = G*m1/4 toward +x and a1 = G*m0/4 toward -x
		Expect(dx.Velocity(0).X).To(BeNumerically("~", 0.5, 1e-15))
		Expect(dx.Velocity(1).X).To(BeNumerically("~", -0.25, 1e-15))
	})

	It("does not modify its input", func() {
		before := x.Clone()
		_, err := nb.Derive(0, x)
		Expect(err).NotTo(HaveOccurred())
		Expect(x).To(Equal(before))
	})

	It("computes energy", func() {
		ke := 0.5*1*0.25 + 0.5*2*0.0625
		pe := -1.0 * 1 * 2 / 2
		Expect(nb.Energy(x)).To(BeNumerically("~", ke+pe, 1e-15))
	})

	It("has zero momentum for this configuration", func() {
		Expect(nb.Momentum(x)).To(Equal(r2.Vec{}))
		pos, vel := nb.CenterOfMass(x)
		Expect(pos.X).To(BeNumerically("~", 1.0/3, 1e-15))
		Expect(vel).To(Equal(r2.Vec{}))
	})

	It("computes angular momentum about the origin", func() {
		// (-1)(-0.5)*1 + (1)(0.25)*2
		Expect(nb.AngularMomentum(x)).To(BeNumerically("~", 1.0, 1e-15))
	})

	It("names bodies on unpack", func() {
		bodies, err := nb.Bodies(x)
		Expect(err).NotTo(HaveOccurred())
		Expect(bodies[0].Name).To(Equal("a"))
		Expect(bodies[1].Mass).To(Equal(2.0))
		Expect(bodies[1].Velocity).To(Equal(r2.Vec{Y: 0.25}))
	})
})
