package metrics

import "github.com/san-kum/orbitsim/internal/dynamo"

// Defaults returns the metrics that apply to sys: energy drift for any
// Hamiltonian system, momentum and angular momentum drift for conserved ones,
// plus closest approach and boundedness for every run.
func Defaults(sys dynamo.System, escapeRadius float64) []dynamo.Metric {
	ms := make([]dynamo.Metric, 0, 5)
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms, NewEnergyDrift(h))
	}
	if c, ok := sys.(dynamo.Conserved); ok {
		ms = append(ms, NewMomentumDrift(c), NewAngularMomentumDrift(c))
	}
	ms = append(ms, NewMinSeparation())
	if escapeRadius > 0 {
		ms = append(ms, NewStability(escapeRadius))
	}
	return ms
}
