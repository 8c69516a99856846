package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

var _ = Describe("Gravity", func() {
	g := physics.DefaultGravity()

	Context("Force", func() {
		It("follows the inverse square law along the displacement", func() {
			f, err := g.Force(2, 3, r2.Vec{X: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.X).To(BeNumerically("~", physics.G*6/4, 1e-24))
			Expect(f.Y).To(BeZero())
		})

		It("rejects a zero displacement", func() {
			_, err := g.Force(1, 1, r2.Vec{})
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
		})
	})

	Context("Pairwise", func() {
		It("stores p_j - p_i and an infinite diagonal", func() {
			x := dynamo.State{0, 0, 0, 0, 3, 4, 0, 0}
			pw, err := physics.NewPairwise(x)
			Expect(err).NotTo(HaveOccurred())

			d, d3 := pw.At(0, 1)
			Expect(d).To(Equal(r2.Vec{X: 3, Y: 4}))
			Expect(d3).To(BeNumerically("~", 125, 1e-9))

			d, _ = pw.At(1, 0)
			Expect(d).To(Equal(r2.Vec{X: -3, Y: -4}))

			_, diag := pw.At(1, 1)
			Expect(math.IsInf(diag, 1)).To(BeTrue())
		})

		It("reports the coincident pair", func() {
			x := dynamo.State{0, 0, 0, 0, 1, 1, 0, 0, 1, 1, 5, 5}
			_, err := physics.NewPairwise(x)

			var se *dynamo.SingularityError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.I).To(Equal(1))
			Expect(se.J).To(Equal(2))
		})
	})

	Context("Accelerations", func() {
		It("gives zero acceleration to a lone body", func() {
			acc, err := g.Accelerations(dynamo.State{1, 2, 3, 4}, []float64{10})
			Expect(err).NotTo(HaveOccurred())
			Expect(acc).To(Equal([]r2.Vec{{}}))
		})

		It("feels no pull from massless companions", func() {
			x := dynamo.State{0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0}
			acc, err := g.Accelerations(x, []float64{5, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(acc[0]).To(Equal(r2.Vec{}))
		})

		It("conserves momentum pairwise", func() {
			masses := []float64{1e24, 3e22, 7e20}
			x := dynamo.State{
				0, 0, 0, 0,
				4e8, 1e7, 0, 0,
				-2e8, 3e8, 0, 0,
			}
			acc, err := g.Accelerations(x, masses)
			Expect(err).NotTo(HaveOccurred())

			var total r2.Vec
			for i, a := range acc {
				total = r2.Add(total, r2.Scale(masses[i], a))
			}
			scale := masses[0] * r2.Norm(acc[0])
			Expect(r2.Norm(total) / scale).To(BeNumerically("<", 1e-12))
		})

		It("points toward the other body", func() {
			x := dynamo.State{0, 0, 0, 0, 10, 0, 0, 0}
			acc, err := g.Accelerations(x, []float64{1, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(acc[0].X).To(BeNumerically(">", 0))
			Expect(acc[1].X).To(BeNumerically("<", 0))
			Expect(acc[0].X).To(BeNumerically("~", physics.G/100, 1e-20))
		})

		It("rejects a mismatched state", func() {
			_, err := g.Accelerations(dynamo.State{0, 0, 0}, []float64{1})
			Expect(errors.Is(err, dynamo.ErrShape)).To(BeTrue())
		})

		It("returns a singularity for coincident bodies", func() {
			x := dynamo.State{1, 1, 0, 0, 1, 1, 0, 0}
			_, err := g.Accelerations(x, []float64{1, 1})
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
		})

		It("matches the serial path when evaluated in parallel", func() {
			n := 40
			masses := make([]float64, n)
			x := dynamo.NewState(n)
			for i := 0; i < n; i++ {
				masses[i] = 1 + float64(i)
				angle := 2 * math.Pi * float64(i) / float64(n)
				r := 1 + 0.1*float64(i)
				x.SetPosition(i, r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
			}

			serial := physics.Gravity{G: 1, Parallel: n + 1}
			parallel := physics.Gravity{G: 1, Parallel: 2}

			want, err := serial.Accelerations(x, masses)
			Expect(err).NotTo(HaveOccurred())
			got, err := parallel.Accelerations(x, masses)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("surfaces a singularity from a parallel worker", func() {
			n := 16
			masses := make([]float64, n)
			x := dynamo.NewState(n)
			for i := 0; i < n; i++ {
				masses[i] = 1
				x.SetPosition(i, r2.Vec{X: float64(i)})
			}
			x.SetPosition(n-1, x.Position(n-2))

			_, err := physics.Gravity{G: 1, Parallel: 2}.Accelerations(x, masses)
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
		})
	})
})
