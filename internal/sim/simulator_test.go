package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	sunMass   = 1.989e30
	earthMass = 5.972e24
	peri      = 1.471e11
	aph       = 1.521e11
	day       = 86400.0
)

func relErr(got, want r2.Vec) float64 {
	return r2.Norm(r2.Sub(got, want)) / r2.Norm(want)
}

// barycentricPair starts a planet at perihelion with the two-body vis-viva
// speed and returns the state together with the relative orbit period.
func barycentricPair() (dynamo.State, []float64, float64) {
	total := sunMass + earthMass
	mu := physics.G * total
	a := physics.SemiMajorAxis(peri, aph)
	v := physics.VisViva(mu, peri, a)

	x := dynamo.NewState(2)
	x.SetPosition(0, r2.Vec{X: peri * sunMass / total})
	x.SetVelocity(0, r2.Vec{Y: v * sunMass / total})
	x.SetPosition(1, r2.Vec{X: -peri * earthMass / total})
	x.SetVelocity(1, r2.Vec{Y: -v * earthMass / total})

	return x, []float64{earthMass, sunMass}, physics.OrbitalPeriod(mu, a)
}

func scatter(n int) (dynamo.State, []float64) {
	x := dynamo.NewState(n)
	masses := make([]float64, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		r := 1 + 0.3*float64(i)
		x.SetPosition(i, r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
		x.SetVelocity(i, r2.Vec{X: -0.2 * math.Sin(angle), Y: 0.2 * math.Cos(angle)})
		masses[i] = 1 + 0.5*float64(i)
	}
	return x, masses
}

var _ = Describe("Simulator", func() {
	unit := sim.WithGravity(physics.NewGravity(1))

	Context("shape invariant", func() {
		for _, name := range integrators.Steppers() {
			It("keeps 4N entries with "+name, func() {
				for n := 1; n <= 5; n++ {
					x, masses := scatter(n)
					nb, err := physics.NewNBody(masses, physics.WithG(1))
					Expect(err).NotTo(HaveOccurred())

					stepper, err := integrators.NewStepper(name)
					Expect(err).NotTo(HaveOccurred())

					out, err := stepper.Step(nb, x, 0, 0.01)
					Expect(err).NotTo(HaveOccurred())
					Expect(out).To(HaveLen(4 * n))
					Expect(out).To(HaveLen(len(x)))
				}
			})
		}

		It("keeps every trajectory row at 4N entries for both drivers", func() {
			for _, n := range []int{2, 3} {
				x, masses := scatter(n)

				tr, err := sim.RunDifferenceSimulation(masses, x, 0, 1, 0.01, unit)
				Expect(err).NotTo(HaveOccurred())
				for _, row := range tr.States {
					Expect(row).To(HaveLen(4 * n))
				}

				tr, err = sim.RunContinuousSimulation(masses, x, 0, 1, 0.1, unit)
				Expect(err).NotTo(HaveOccurred())
				for _, row := range tr.States {
					Expect(row).To(HaveLen(4 * n))
				}
			}
		})
	})

	Context("two-body orbit", func() {
		It("returns to its initial state after one period", func() {
			x0, masses, period := barycentricPair()

			tr, err := sim.RunContinuousSimulation(masses, x0, 0, period, period/100)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Times[len(tr.Times)-1]).To(Equal(period))

			final := tr.Final()
			for i := 0; i < 2; i++ {
				Expect(relErr(final.Position(i), x0.Position(i))).To(BeNumerically("<", 1e-3))
				Expect(relErr(final.Velocity(i), x0.Velocity(i))).To(BeNumerically("<", 1e-3))
			}
		})

		It("conserves energy and angular momentum", func() {
			x0, masses, period := barycentricPair()
			nb, err := physics.NewNBody(masses)
			Expect(err).NotTo(HaveOccurred())

			s := sim.New(nb)
			for _, m := range metrics.Defaults(nb, 0) {
				s.AddMetric(m)
			}

			res, err := s.RunContinuous(x0, sim.Config{T0: 0, T1: period, Dt: day})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Method).To(Equal("rk45"))
			Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 1e-5))
			Expect(res.Metrics["angular_momentum_drift"]).To(BeNumerically("<", 1e-5))
			Expect(res.Metrics["min_separation"]).To(BeNumerically("~", peri, peri*1e-6))
			Expect(res.EnergyDrift).To(BeNumerically("<", 1e-6))
			Expect(res.Stats.Steps).To(BeNumerically(">", 0))
		})

		It("keeps the symplectic energy error bounded", func() {
			x0, masses, period := barycentricPair()
			nb, err := physics.NewNBody(masses)
			Expect(err).NotTo(HaveOccurred())

			s := sim.New(nb)
			s.AddMetric(metrics.NewEnergyDrift(nb))

			res, err := s.RunDiscrete(x0, sim.Config{T0: 0, T1: 3 * period, Dt: day / 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Method).To(Equal(integrators.DefaultStepper))
			Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 1e-2))
			Expect(res.Diverged).To(BeFalse())
			Expect(res.FirstNonFinite).To(Equal(-1))
		})
	})

	Context("mirrored binary", func() {
		It("keeps both bodies at the same distance from the barycenter", func() {
			masses := []float64{1, 1}
			x0 := dynamo.State{
				-1, 0, 0, -0.4,
				1, 0, 0, 0.4,
			}

			for _, run := range []func([]float64, dynamo.State, float64, float64, float64, ...sim.RunOption) (*dynamo.Trajectory, error){
				sim.RunContinuousSimulation,
				sim.RunDifferenceSimulation,
			} {
				tr, err := run(masses, x0, 0, 20, 0.05, unit)
				Expect(err).NotTo(HaveOccurred())

				for _, x := range tr.States {
					c := r2.Scale(0.5, r2.Add(x.Position(0), x.Position(1)))
					d0 := r2.Norm(r2.Sub(x.Position(0), c))
					d1 := r2.Norm(r2.Sub(x.Position(1), c))
					Expect(math.Abs(d0 - d1)).To(BeNumerically("<=", 1e-9*math.Max(d0, 1)))
				}
			}
		})
	})

	Context("zero-force baseline", func() {
		x0 := dynamo.State{3, -2, 1.5, 0.5}

		It("moves a lone body in a straight line with the fixed driver", func() {
			tr, err := sim.RunDifferenceSimulation([]float64{5}, x0, 0, 10, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(10))
			for k, x := range tr.States {
				Expect(x.Position(0)).To(Equal(r2.Vec{X: 3 + 1.5*float64(k), Y: -2 + 0.5*float64(k)}))
				Expect(x.Velocity(0)).To(Equal(r2.Vec{X: 1.5, Y: 0.5}))
			}
		})

		It("moves a lone body in a straight line with the adaptive driver", func() {
			tr, err := sim.RunContinuousSimulation([]float64{5}, x0, 0, 10, 0.5)
			Expect(err).NotTo(HaveOccurred())
			for k, x := range tr.States {
				t := tr.Times[k]
				Expect(x[0]).To(BeNumerically("~", 3+1.5*t, 1e-9))
				Expect(x[1]).To(BeNumerically("~", -2+0.5*t, 1e-9))
			}
		})
	})

	Context("step-count determinism", func() {
		DescribeTable("returns exactly ten rows over ten steps",
			func(dt float64) {
				x0, masses, _ := barycentricPair()
				tr, err := sim.RunDifferenceSimulation(masses, x0, 0, 10*dt, dt)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Len()).To(Equal(10))
				Expect(tr.Times[0]).To(Equal(0.0))
				Expect(tr.States[0]).To(Equal(x0))
				Expect(tr.Times[9]).To(Equal(9 * dt))
			},
			Entry("one day", day),
			Entry("one hour", 3600.0),
			Entry("a tenth of a second", 0.1),
			Entry("three tenths of a second", 0.3),
			Entry("a millisecond", 1e-3),
		)

		It("is reproducible", func() {
			x0, masses := scatter(3)
			a, err := sim.RunDifferenceSimulation(masses, x0, 0, 5, 0.01, unit)
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.RunDifferenceSimulation(masses, x0, 0, 5, 0.01, unit)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.States).To(Equal(b.States))
		})

		DescribeTable("samples the adaptive grid up to and including t1",
			func(t0, t1, dt float64, steps int, want []float64) {
				cfg := sim.Config{T0: t0, T1: t1, Dt: dt}
				Expect(cfg.NumSteps()).To(Equal(steps))

				ts := cfg.EvalTimes()
				Expect(ts).To(HaveLen(len(want)))
				for k := range want {
					Expect(ts[k]).To(BeNumerically("~", want[k], 1e-12))
				}
				last := len(ts) - 1
				Expect(ts[last]).To(Equal(t1))
				for k := 1; k < last; k++ {
					Expect(ts[k] - ts[k-1]).To(BeNumerically("~", dt, 1e-12))
				}
				Expect(ts[last] - ts[last-1]).To(BeNumerically(">", 1e-9*dt))
			},
			Entry("partial last interval", 0.0, 1.0, 0.3, 3, []float64{0, 0.3, 0.6, 0.9, 1}),
			Entry("span a rounded multiple of dt", 0.0, 0.9, 0.3, 3, []float64{0, 0.3, 0.6, 0.9}),
			Entry("offset start", 0.1, 0.7, 0.2, 3, []float64{0.1, 0.3, 0.5, 0.7}),
			Entry("exact multiple", 0.0, 1.0, 0.25, 4, []float64{0, 0.25, 0.5, 0.75, 1}),
			Entry("dt wider than the span", 0.0, 0.5, 1.0, 0, []float64{0, 0.5}),
		)
	})

	Context("run options", func() {
		It("tightens the adaptive result with smaller tolerances", func() {
			x0, masses, period := barycentricPair()

			loose, err := sim.RunContinuousSimulation(masses, x0, 0, period, period/50, sim.WithTolerances(1e-4, 1e-4))
			Expect(err).NotTo(HaveOccurred())
			tight, err := sim.RunContinuousSimulation(masses, x0, 0, period, period/50, sim.WithTolerances(1e-10, 1e-10))
			Expect(err).NotTo(HaveOccurred())

			Expect(loose.Len()).To(Equal(tight.Len()))
			looseErr := relErr(loose.Final().Position(0), x0.Position(0))
			tightErr := relErr(tight.Final().Position(0), x0.Position(0))
			Expect(tightErr).To(BeNumerically("<", looseErr))
			Expect(tightErr).To(BeNumerically("<", 1e-6))
		})

		It("observes extra metrics and logs through the given logger", func() {
			x, masses := scatter(2)
			minSep := metrics.NewMinSeparation()

			tr, err := sim.RunDifferenceSimulation(masses, x, 0, 1, 0.01, unit,
				sim.WithMetrics(minSep),
				sim.WithRunLogger(logging.NewTestLogger(GinkgoWriter)))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(100))

			initial := r2.Norm(r2.Sub(x.Position(1), x.Position(0)))
			Expect(minSep.Value()).To(BeNumerically(">", 0))
			Expect(minSep.Value()).To(BeNumerically("<=", initial))
		})
	})

	Context("errors", func() {
		It("raises a singularity for coincident bodies", func() {
			x0 := dynamo.State{1, 1, 0, 0, 1, 1, 0, 0}

			_, err := sim.RunDifferenceSimulation([]float64{1, 1}, x0, 0, 1, 0.1)
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())

			_, err = sim.RunContinuousSimulation([]float64{1, 1}, x0, 0, 1, 0.1)
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
		})

		It("records bodies meeting at the last row without stepping out of it", func() {
			x0 := dynamo.State{-1, 0, 1, 0, 1, 0, -1, 0}
			nb, err := physics.NewNBody([]float64{1, 1}, physics.WithG(1e-30))
			Expect(err).NotTo(HaveOccurred())

			res, err := sim.New(nb).RunDiscrete(x0, sim.Config{T0: 0, T1: 1.25, Dt: 0.25, Method: "euler"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory.Len()).To(Equal(5))

			last := res.Trajectory.States[4]
			Expect(last.Position(0)).To(Equal(last.Position(1)))
		})

		It("rejects a state that does not match the masses", func() {
			_, err := sim.RunDifferenceSimulation([]float64{1, 1}, dynamo.State{0, 0, 0, 0}, 0, 1, 0.1)
			var se *dynamo.ShapeError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.NumMasses).To(Equal(2))
		})

		DescribeTable("rejects invalid configuration",
			func(masses []float64, x0 dynamo.State, t0, t1, dt float64) {
				_, err := sim.RunContinuousSimulation(masses, x0, t0, t1, dt)
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
				_, err = sim.RunDifferenceSimulation(masses, x0, t0, t1, dt)
				Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			},
			Entry("zero mass", []float64{0}, dynamo.State{0, 0, 0, 0}, 0.0, 1.0, 0.1),
			Entry("negative mass", []float64{-1}, dynamo.State{0, 0, 0, 0}, 0.0, 1.0, 0.1),
			Entry("NaN state", []float64{1}, dynamo.State{math.NaN(), 0, 0, 0}, 0.0, 1.0, 0.1),
			Entry("zero dt", []float64{1}, dynamo.State{0, 0, 0, 0}, 0.0, 1.0, 0.0),
			Entry("reversed span", []float64{1}, dynamo.State{0, 0, 0, 0}, 1.0, 0.0, 0.1),
			Entry("empty system", []float64{}, dynamo.State{}, 0.0, 1.0, 0.1),
		)

		It("rejects an unknown method and strategy", func() {
			x0, masses := scatter(2)
			_, err := sim.RunContinuousSimulation(masses, x0, 0, 1, 0.1, sim.WithMethod("rk78"))
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

			nb, _ := physics.NewNBody(masses)
			_, err = sim.New(nb).Run("implicit", x0, sim.Config{T0: 0, T1: 1, Dt: 0.1})
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("surfaces an exhausted step budget without a trajectory", func() {
			x0, masses, period := barycentricPair()
			tr, err := sim.RunContinuousSimulation(masses, x0, 0, period, day, sim.WithMaxSteps(3))

			var fail *dynamo.IntegrationFailure
			Expect(errors.As(err, &fail)).To(BeTrue())
			Expect(fail.Method).To(Equal("rk45"))
			Expect(fail.Message).To(ContainSubstring("maximum number of steps"))
			Expect(tr).To(BeNil())
		})

		It("reports divergence as non-finite rows", func() {
			x0 := dynamo.State{-1, 0, 0, 0, 1, 0, 0, 0}
			nb, err := physics.NewNBody([]float64{1e308, 1e308}, physics.WithG(1))
			Expect(err).NotTo(HaveOccurred())

			res, err := sim.New(nb).RunDiscrete(x0, sim.Config{T0: 0, T1: 20, Dt: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trajectory.Len()).To(Equal(20))
			Expect(res.Diverged).To(BeTrue())
			Expect(res.FirstNonFinite).To(BeNumerically(">", 0))
			Expect(res.Trajectory.States[res.FirstNonFinite].IsValid()).To(BeFalse())
		})
	})

	Context("progress", func() {
		It("reports every interval and the final step", func() {
			x0, masses, _ := barycentricPair()
			var steps []int
			_, err := sim.RunDifferenceSimulation(masses, x0, 0, 365*day, day,
				sim.WithProgress(100, func(step, total int, t float64) {
					Expect(total).To(Equal(365))
					steps = append(steps, step)
				}))
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal([]int{100, 200, 300, 365}))
		})
	})

	Context("observers", func() {
		It("sees every sample in order", func() {
			x0, masses := scatter(2)
			nb, err := physics.NewNBody(masses, physics.WithG(1))
			Expect(err).NotTo(HaveOccurred())

			rec := &recorder{}
			s := sim.New(nb)
			s.AddObserver(rec)

			res, err := s.RunContinuous(x0, sim.Config{T0: 0, T1: 1, Dt: 0.25, Method: "rk23"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Method).To(Equal("rk23"))
			Expect(rec.times).To(Equal(res.Trajectory.Times))
		})
	})

	Context("ensemble", func() {
		It("runs every job and keeps job order", func() {
			x0, masses := scatter(3)
			factory := func() *sim.Simulator {
				nb, _ := physics.NewNBody(masses, physics.WithG(1))
				return sim.New(nb)
			}

			cfg := sim.Config{T0: 0, T1: 2, Dt: 0.1}
			jobs := []sim.Job{
				{Name: "a", Strategy: sim.StrategyAdaptive, Config: cfg},
				{Name: "b", Strategy: sim.StrategyFixed, Config: cfg},
				{Name: "c", Strategy: sim.StrategyAdaptive, Config: withMethod(cfg, "rk23")},
			}

			results, err := sim.NewEnsemble(factory).Run(context.Background(), x0, jobs)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Method).To(Equal("rk45"))
			Expect(results[1].Method).To(Equal("symplectic-euler"))
			Expect(results[2].Method).To(Equal("rk23"))
			Expect(results[1].Trajectory.Len()).To(Equal(20))
		})

		It("returns the first failure", func() {
			x0 := dynamo.State{0, 0, 0, 0, 0, 0, 0, 0}
			factory := func() *sim.Simulator {
				nb, _ := physics.NewNBody([]float64{1, 1})
				return sim.New(nb)
			}
			_, err := sim.NewEnsemble(factory).Run(context.Background(), x0,
				[]sim.Job{{Strategy: sim.StrategyFixed, Config: sim.Config{T0: 0, T1: 1, Dt: 0.1}}})
			Expect(errors.Is(err, dynamo.ErrSingularity)).To(BeTrue())
		})
	})
})

type recorder struct {
	times []float64
}

func (r *recorder) OnSample(k int, t float64, x dynamo.State) {
	r.times = append(r.times, t)
}

func withMethod(cfg sim.Config, method string) sim.Config {
	cfg.Method = method
	return cfg
}
