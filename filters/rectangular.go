package filters

import (
	"math"

	"github.com/metocean-tools/logscreen/spectral"
)

// Rectangular applies an ideal bandpass directly in the frequency domain:
// the signal is transformed, every bin whose frequency magnitude falls
// outside [low, high] is zeroed, and the result is transformed back.
//
// Unlike the recursive filter this zeroes out-of-band content exactly,
// which is why the frequency-domain integrator enforces it: residual
// very-low-frequency energy makes FFT integration diverge.
func Rectangular(data []float64, fs float64, low, high Cutoff) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}

	f := spectral.NewFFT()
	spectrum := f.Compute(data)

	for k := range spectrum {
		mag := math.Abs(spectral.BinFrequency(k, n, fs))

		if (low.Enabled && mag < low.Hz) || (high.Enabled && mag > high.Hz) {
			spectrum[k] = 0
		}
	}

	return f.ComputeInverseReal(spectrum)
}
