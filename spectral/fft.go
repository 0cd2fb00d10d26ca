package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp transforms shared by the PSD estimator, the
// rectangular bandpass filter and the frequency-domain integrator.
type FFT struct{}

// NewFFT creates an FFT calculator.
func NewFFT() *FFT {
	return &FFT{}
}

// Compute transforms a real signal into its complex spectrum. Arbitrary
// lengths are accepted, not only powers of two.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeInverseReal inverts a spectrum and keeps the real part, which is
// exact for spectra derived from real signals.
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	inverse := fft.IFFT(x)
	out := make([]float64, len(inverse))
	for i, v := range inverse {
		out[i] = real(v)
	}
	return out
}

// BinFrequency returns the physical frequency in Hz of FFT bin k for an
// n-point transform at sampling rate fs. Bins above n/2 map to negative
// frequencies.
func BinFrequency(k, n int, fs float64) float64 {
	if n == 0 {
		return 0
	}

	if k <= n/2 {
		return float64(k) * fs / float64(n)
	}
	return float64(k-n) * fs / float64(n)
}
