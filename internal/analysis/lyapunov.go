package analysis

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two nearby trajectories
// 2. Measure their divergence after every step
// 3. Renormalize the separation back to d0 and accumulate ln(d/d0)
func LyapunovExponent(
	sys dynamo.System,
	stepper dynamo.Stepper,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) (float64, error) {
	if len(x0) == 0 || perturbation <= 0 {
		return 0, nil
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	t := 0.0
	sumLog := 0.0
	count := 0

	for t < duration {
		var err error
		if x, err = stepper.Step(sys, x, t, dt); err != nil {
			return 0, err
		}
		if xp, err = stepper.Step(sys, xp, t, dt); err != nil {
			return 0, err
		}
		t += dt

		sep := 0.0
		for i := range x {
			diff := xp[i] - x[i]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)

		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++

			scale := d0 / sep
			for i := range xp {
				xp[i] = x[i] + (xp[i]-x[i])*scale
			}
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * dt), nil
}
