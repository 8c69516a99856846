package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// BodyStride is the number of state entries per body.
const BodyStride = 4

type State []float64

// NewState returns a zeroed state for n bodies.
func NewState(n int) State {
	return make(State, n*BodyStride)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// NumBodies is the body count implied by the length of s.
func (s State) NumBodies() int { return len(s) / BodyStride }

func PositionIndex(i int) int { return i * BodyStride }
func VelocityIndex(i int) int { return i*BodyStride + 2 }

func (s State) Position(i int) r2.Vec {
	k := PositionIndex(i)
	return r2.Vec{X: s[k], Y: s[k+1]}
}

func (s State) Velocity(i int) r2.Vec {
	k := VelocityIndex(i)
	return r2.Vec{X: s[k], Y: s[k+1]}
}

func (s State) SetPosition(i int, p r2.Vec) {
	k := PositionIndex(i)
	s[k], s[k+1] = p.X, p.Y
}

func (s State) SetVelocity(i int, v r2.Vec) {
	k := VelocityIndex(i)
	s[k], s[k+1] = v.X, v.Y
}

// Body is a named point mass. Mass never changes during a run; Position and
// Velocity are overwritten on every step.
type Body struct {
	Name     string
	Mass     float64
	Position r2.Vec
	Velocity r2.Vec
}

// Pack flattens bodies into a state and a parallel mass slice.
func Pack(bodies []Body) (State, []float64) {
	x := NewState(len(bodies))
	masses := make([]float64, len(bodies))
	for i, b := range bodies {
		x.SetPosition(i, b.Position)
		x.SetVelocity(i, b.Velocity)
		masses[i] = b.Mass
	}
	return x, masses
}

// Unpack is the inverse of Pack. names may be nil or shorter than masses;
// unnamed bodies are called "body<i>".
func Unpack(x State, masses []float64, names []string) ([]Body, error) {
	if err := CheckShape(masses, x); err != nil {
		return nil, err
	}
	bodies := make([]Body, len(masses))
	for i := range masses {
		name := fmt.Sprintf("body%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		bodies[i] = Body{
			Name:     name,
			Mass:     masses[i],
			Position: x.Position(i),
			Velocity: x.Velocity(i),
		}
	}
	return bodies, nil
}

// CheckShape verifies len(x) == 4*len(masses).
func CheckShape(masses []float64, x State) error {
	if len(x) != BodyStride*len(masses) {
		return &ShapeError{StateLen: len(x), NumMasses: len(masses)}
	}
	return nil
}

// ValidateMasses rejects empty, non-positive and non-finite masses.
func ValidateMasses(masses []float64) error {
	if len(masses) == 0 {
		return &ConfigurationError{Field: "body count", Value: 0, Reason: "at least one body is required"}
	}
	for i, m := range masses {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("mass[%d]", i), Value: m, Reason: "must be finite"}
		}
		if m <= 0 {
			return &ConfigurationError{Field: fmt.Sprintf("mass[%d]", i), Value: m, Reason: "must be positive"}
		}
	}
	return nil
}

// ValidateSystem runs every check a driver needs before the first step.
func ValidateSystem(masses []float64, x State) error {
	if err := ValidateMasses(masses); err != nil {
		return err
	}
	if err := CheckShape(masses, x); err != nil {
		return err
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("state[%d]", i), Value: v, Reason: "must be finite"}
		}
	}
	return nil
}
