package spectral

import (
	"fmt"
	"math"

	"github.com/metocean-tools/logscreen/windowing"
)

// WelchParams contains parameters for overlapped-segment PSD estimation.
type WelchParams struct {
	// SegmentLength is the number of samples per segment (nperseg). Zero
	// means "use the whole window as a single segment".
	SegmentLength int `json:"segment_length"`

	// Window is the taper applied to each segment.
	Window windowing.Type `json:"window"`

	// OverlapPercent is the segment overlap in percent of the segment
	// length, e.g. 50 for half-overlapping segments.
	OverlapPercent float64 `json:"overlap_percent"`

	// Detrend removes each segment's mean before the transform.
	Detrend bool `json:"detrend"`
}

// DefaultWelchParams returns the estimator defaults: Hann window, 50%
// overlap, per-segment mean removal.
func DefaultWelchParams() WelchParams {
	return WelchParams{
		Window:         windowing.TypeHann,
		OverlapPercent: 50,
		Detrend:        true,
	}
}

// PSDResult holds a one-sided power spectral density estimate.
type PSDResult struct {
	Frequencies []float64 `json:"frequencies"` // Hz, length n/2+1
	Power       []float64 `json:"power"`       // units²/Hz
	Segments    int       `json:"segments"`    // segments averaged
}

// Welch implements Welch's method: the signal is split into overlapping
// segments, each segment is detrended, tapered and transformed, and the
// squared magnitudes are averaged into a one-sided PSD.
//
// References:
// - Welch, P.D. (1967). "The use of fast Fourier transform for the
//   estimation of power spectra"
type Welch struct {
	params WelchParams
	fft    *FFT
}

// NewWelch creates a Welch PSD estimator with the given parameters.
func NewWelch(params WelchParams) (*Welch, error) {
	if params.OverlapPercent < 0 || params.OverlapPercent >= 100 {
		return nil, fmt.Errorf("overlap must be in [0, 100), got %g", params.OverlapPercent)
	}
	if params.SegmentLength < 0 {
		return nil, fmt.Errorf("segment length must be non-negative, got %d", params.SegmentLength)
	}
	if _, err := windowing.ParseType(string(params.Window)); err != nil {
		return nil, err
	}

	return &Welch{params: params, fft: NewFFT()}, nil
}

// Compute estimates the one-sided PSD of data sampled at fs Hz.
func (w *Welch) Compute(data []float64, fs float64) (*PSDResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", fs)
	}

	// Missing samples are patched with the mean of the valid ones before
	// segmenting; a single gap must not poison every bin.
	data, valid := patchMissing(data)
	if valid == 0 {
		return nil, fmt.Errorf("no valid samples")
	}

	nperseg := w.params.SegmentLength
	if nperseg <= 0 || nperseg > len(data) {
		nperseg = len(data)
	}

	taper, err := windowing.New(w.params.Window, nperseg)
	if err != nil {
		return nil, err
	}

	overlap := int(float64(nperseg) * w.params.OverlapPercent / 100.0)
	step := nperseg - overlap
	if step < 1 {
		step = 1
	}

	numBins := nperseg/2 + 1
	accum := make([]float64, numBins)
	segments := 0

	for start := 0; start+nperseg <= len(data); start += step {
		segment := data[start : start+nperseg]

		mean := 0.0
		if w.params.Detrend {
			for _, v := range segment {
				mean += v
			}
			mean /= float64(nperseg)
		}

		windowed := make([]float64, nperseg)
		coeffs := taper.Coefficients()
		for i := range segment {
			windowed[i] = coeffs[i] * (segment[i] - mean)
		}

		spectrum := w.fft.Compute(windowed)
		for i := 0; i < numBins; i++ {
			re, im := real(spectrum[i]), imag(spectrum[i])
			accum[i] += re*re + im*im
		}
		segments++
	}

	if segments == 0 {
		return nil, fmt.Errorf("data shorter than one segment (%d < %d)", len(data), nperseg)
	}

	// Scale: 1/(fs * sum(w²) * segments), doubling interior bins for the
	// one-sided spectrum.
	scale := 1.0 / (fs * taper.SumSquares() * float64(segments))
	power := make([]float64, numBins)
	for i := range power {
		power[i] = accum[i] * scale
		if i > 0 && i < numBins-1 {
			power[i] *= 2.0
		}
	}

	freqs := make([]float64, numBins)
	df := fs / float64(nperseg)
	for i := range freqs {
		freqs[i] = float64(i) * df
	}

	return &PSDResult{Frequencies: freqs, Power: power, Segments: segments}, nil
}

// ComputeChannels estimates the PSD of several channels sharing one time
// base. Channels that are entirely NaN produce a nil entry rather than an
// error so that synthesized missing columns stay inert downstream.
func (w *Welch) ComputeChannels(channels [][]float64, fs float64) ([]*PSDResult, error) {
	results := make([]*PSDResult, len(channels))

	for c, data := range channels {
		if allNaN(data) {
			continue
		}

		res, err := w.Compute(data, fs)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", c, err)
		}
		results[c] = res
	}

	return results, nil
}

func allNaN(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// patchMissing substitutes NaN samples with the mean of the valid samples.
// Returns the (possibly copied) data and the valid-sample count.
func patchMissing(data []float64) ([]float64, int) {
	var sum float64
	var valid int
	for _, v := range data {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
	}
	if valid == 0 || valid == len(data) {
		return data, valid
	}

	mean := sum / float64(valid)
	patched := make([]float64, len(data))
	for i, v := range data {
		if math.IsNaN(v) {
			patched[i] = mean
		} else {
			patched[i] = v
		}
	}
	return patched, valid
}
