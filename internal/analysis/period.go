package analysis

import (
	"errors"
	"math"
)

// CrossingPeriod measures the mean time per revolution of the point (xs, ys)
// around the centre (cx, cy). The polar angle is unwrapped and every pass
// through a whole number of turns from the starting angle counts as one
// revolution; crossing times are linearly interpolated between samples.
func CrossingPeriod(times, xs, ys []float64, cx, cy float64) (float64, error) {
	if len(times) != len(xs) || len(xs) != len(ys) {
		return 0, errors.New("analysis: times and positions differ in length")
	}
	if len(times) < 3 {
		return 0, ErrTooShort
	}

	theta0 := math.Atan2(ys[0]-cy, xs[0]-cx)
	prevAngle := theta0
	prevTurns := 0.0
	turns := 0
	lastCrossing := times[0]

	for k := 1; k < len(times); k++ {
		angle := math.Atan2(ys[k]-cy, xs[k]-cx)
		delta := angle - prevAngle
		if delta > math.Pi {
			delta -= 2 * math.Pi
		} else if delta < -math.Pi {
			delta += 2 * math.Pi
		}
		curTurns := prevTurns + delta/(2*math.Pi)

		// whole turns in (prev, cur], either direction
		next := math.Floor(math.Abs(prevTurns)) + 1
		if math.Abs(curTurns) >= next {
			frac := (next - math.Abs(prevTurns)) / (math.Abs(curTurns) - math.Abs(prevTurns))
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 1
			}
			lastCrossing = times[k-1] + frac*(times[k]-times[k-1])
			turns = int(next)
		}

		prevAngle = angle
		prevTurns = curTurns
	}

	if turns == 0 {
		return 0, errors.New("analysis: no complete revolution")
	}
	return (lastCrossing - times[0]) / float64(turns), nil
}
