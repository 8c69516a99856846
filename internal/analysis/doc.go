// Package analysis extracts orbital characteristics from trajectories.
//
//   - [PowerSpectrum] and [DominantPeriod]: frequency content of a sampled
//     coordinate
//   - [CrossingPeriod]: time per revolution around a centre
//   - [LyapunovExponent]: sensitivity to initial conditions
//
// A period estimate from a single coordinate:
//
//	xs, _ := tr.Positions(0)
//	T, err := analysis.DominantPeriod(tr.Times, xs)
package analysis
