package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// FFT returns the discrete Fourier transform of a real series. Power-of-two
// lengths take the radix-2 path.
func FFT(data []float64) []complex128 {
	return fft.FFTReal(data)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data with its mean removed, zero-padded to a power of two.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	padded := make([]float64, nextPow2(len(data)))
	for i, v := range data {
		padded[i] = v - mean
	}

	spectrum := FFT(padded)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantPeriod estimates the period of the strongest oscillation in series.
// Samples must be evenly spaced in time. The peak bin is refined with a
// parabolic fit through its neighbours.
func DominantPeriod(times, series []float64) (float64, error) {
	if len(times) != len(series) {
		return 0, errors.New("analysis: times and series differ in length")
	}
	if len(series) < 4 {
		return 0, ErrTooShort
	}

	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	ps := PowerSpectrum(series)
	n := 2 * len(ps)

	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, errors.New("analysis: series has no oscillation")
	}

	bin := float64(peak)
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if denom := a - 2*b + c; denom != 0 {
			bin += 0.5 * (a - c) / denom
		}
	}

	return float64(n) * dt / bin, nil
}
