package physics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// G is the gravitational constant in m^3 kg^-1 s^-2.
const G = 6.6743e-11

// ParallelThreshold is the default body count from which pairwise rows are
// evaluated concurrently.
const ParallelThreshold = 64

const rowChunk = 8

// Gravity evaluates Newton's law of gravitation with a fixed constant.
type Gravity struct {
	G float64
	// Parallel overrides ParallelThreshold when positive.
	Parallel int
}

func NewGravity(g float64) Gravity {
	return Gravity{G: g}
}

func DefaultGravity() Gravity {
	return Gravity{G: G}
}

// Force returns the force on body 1 exerted by body 2, where r is the
// displacement from body 1 to body 2: G*m1*m2/|r|^3 * r.
func (g Gravity) Force(m1, m2 float64, r r2.Vec) (r2.Vec, error) {
	d := r2.Norm(r)
	d3 := d * d * d
	if d3 == 0 {
		return r2.Vec{}, &dynamo.SingularityError{I: -1, J: -1}
	}
	return r2.Scale(g.G*m1*m2/d3, r), nil
}

// Pairwise holds the displacement matrix D[i][j] = p_j - p_i and |D[i][j]|^3,
// stored row-major. The diagonal of Dist3 is +Inf so self pairs contribute
// nothing.
type Pairwise struct {
	N     int
	Disp  []r2.Vec
	Dist3 []float64
}

func newPairwise(n int) *Pairwise {
	return &Pairwise{
		N:     n,
		Disp:  make([]r2.Vec, n*n),
		Dist3: make([]float64, n*n),
	}
}

// NewPairwise builds the full matrix for the bodies in x.
func NewPairwise(x dynamo.State) (*Pairwise, error) {
	pw := newPairwise(x.NumBodies())
	for i := 0; i < pw.N; i++ {
		if err := pw.fillRow(x, i); err != nil {
			return nil, err
		}
	}
	return pw, nil
}

func (pw *Pairwise) At(i, j int) (r2.Vec, float64) {
	k := i*pw.N + j
	return pw.Disp[k], pw.Dist3[k]
}

func (pw *Pairwise) fillRow(x dynamo.State, i int) error {
	pi := x.Position(i)
	row := i * pw.N
	for j := 0; j < pw.N; j++ {
		if j == i {
			pw.Disp[row+j] = r2.Vec{}
			pw.Dist3[row+j] = math.Inf(1)
			continue
		}
		d := r2.Sub(x.Position(j), pi)
		dist := r2.Norm(d)
		d3 := dist * dist * dist
		if d3 == 0 {
			a, b := i, j
			if b < a {
				a, b = b, a
			}
			return &dynamo.SingularityError{I: a, J: b}
		}
		pw.Disp[row+j] = d
		pw.Dist3[row+j] = d3
	}
	return nil
}

func (pw *Pairwise) rowAcceleration(i int, masses []float64, g float64) r2.Vec {
	var a r2.Vec
	row := i * pw.N
	for j := 0; j < pw.N; j++ {
		a = r2.Add(a, r2.Scale(masses[j]/pw.Dist3[row+j], pw.Disp[row+j]))
	}
	return r2.Scale(g, a)
}

func (g Gravity) parallelThreshold() int {
	if g.Parallel > 0 {
		return g.Parallel
	}
	return ParallelThreshold
}

// Accelerations returns the gravitational acceleration of every body in x.
// Masses are not validated here; a zero mass simply exerts no pull.
func (g Gravity) Accelerations(x dynamo.State, masses []float64) ([]r2.Vec, error) {
	if err := dynamo.CheckShape(masses, x); err != nil {
		return nil, err
	}

	n := len(masses)
	acc := make([]r2.Vec, n)
	pw := newPairwise(n)

	rows := func(start, end int) error {
		for i := start; i < end; i++ {
			if err := pw.fillRow(x, i); err != nil {
				return err
			}
			acc[i] = pw.rowAcceleration(i, masses, g.G)
		}
		return nil
	}

	var err error
	if n >= g.parallelThreshold() {
		err = dynamo.ParallelFor(n, rowChunk, rows)
	} else {
		err = rows(0, n)
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}
