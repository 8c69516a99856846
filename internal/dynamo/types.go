package dynamo

import "gonum.org/v1/gonum/spatial/r2"

// System is an autonomous or time-dependent ODE dX/dt = f(t, X).
type System interface {
	Derive(t float64, x State) (State, error)
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Conserved is implemented by systems with linear and angular momentum.
type Conserved interface {
	Hamiltonian
	Momentum(x State) r2.Vec
	AngularMomentum(x State) float64
}

// Stepper advances a state by exactly one fixed increment dt. Implementations
// return a new State and never write to x.
type Stepper interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Observer sees every recorded sample in order.
type Observer interface {
	OnSample(k int, t float64, x State)
}

// ProgressFunc is called synchronously by long-running drivers.
type ProgressFunc func(step, total int, t float64)

// Trajectory is the output of one run: Times[k] pairs with States[k].
type Trajectory struct {
	Times  []float64
	States []State
}

func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{
		Times:  make([]float64, 0, capacity),
		States: make([]State, 0, capacity),
	}
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x)
}

// Final returns the last recorded state, or nil for an empty trajectory.
func (tr *Trajectory) Final() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

func (tr *Trajectory) NumBodies() int {
	if len(tr.States) == 0 {
		return 0
	}
	return tr.States[0].NumBodies()
}

// Series extracts state component idx from every sample.
func (tr *Trajectory) Series(idx int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		out[k] = s[idx]
	}
	return out
}

// Positions returns the x and y series of one body.
func (tr *Trajectory) Positions(body int) (xs, ys []float64) {
	k := PositionIndex(body)
	return tr.Series(k), tr.Series(k + 1)
}
