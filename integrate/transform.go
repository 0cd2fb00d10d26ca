package integrate

import (
	"math"

	"github.com/metocean-tools/logscreen/filters"
	"github.com/metocean-tools/logscreen/spectral"
)

// fftIntegrate integrates a signal in the frequency domain: each bin is
// multiplied by 1/(i·2π·f) once per integration order. The DC bin is forced
// to zero, as is everything outside the [low, high] passband — the
// rectangular cutoff is mandatory here because residual very-low-frequency
// content diverges under integration.
func fftIntegrate(x []float64, fs float64, low, high filters.Cutoff, orders int) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	transform := spectral.NewFFT()
	spectrum := transform.Compute(x)

	for k := range spectrum {
		f := spectral.BinFrequency(k, n, fs)
		mag := math.Abs(f)

		if k == 0 || mag == 0 ||
			(low.Enabled && mag < low.Hz) ||
			(high.Enabled && mag > high.Hz) {
			spectrum[k] = 0
			continue
		}

		// 1/(i·2π·f) per integration order
		h := complex(0, -1.0/(2.0*math.Pi*f))
		for o := 0; o < orders; o++ {
			spectrum[k] *= h
		}
	}

	return transform.ComputeInverseReal(spectrum)
}

// rms returns the root-mean-square of the signal, skipping NaN samples.
func rms(data []float64) float64 {
	var sum float64
	var n int
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		sum += v * v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n))
}
