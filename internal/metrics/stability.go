package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Stability is the fraction of samples in which every body is finite and
// within radius of the origin. Escapes and divergence both count as
// violations.
type Stability struct {
	name       string
	radius     float64
	violations int
	samples    int
	maxRadius  float64
}

func NewStability(radius float64) *Stability {
	return &Stability{
		name:   "stability",
		radius: radius,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	if !x.IsValid() {
		s.violations++
		return
	}
	escaped := false
	for i := 0; i < x.NumBodies(); i++ {
		r := r2.Norm(x.Position(i))
		s.maxRadius = math.Max(s.maxRadius, r)
		if r > s.radius {
			escaped = true
		}
	}
	if escaped {
		s.violations++
	}
}

// MaxRadius is the largest finite distance from the origin seen so far.
func (s *Stability) MaxRadius() float64 { return s.maxRadius }

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.maxRadius = 0
}

// MinSeparation is the closest approach between any two bodies.
type MinSeparation struct {
	min float64
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{min: math.Inf(1)}
}

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) Observe(x dynamo.State, t float64) {
	n := x.NumBodies()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r2.Norm(r2.Sub(x.Position(j), x.Position(i)))
			if d < m.min {
				m.min = d
			}
		}
	}
}

func (m *MinSeparation) Value() float64 { return m.min }

func (m *MinSeparation) Reset() { m.min = math.Inf(1) }
