// Package filters implements the bandpass filter stage applied to windows
// before statistics and spectral reduction. Two interchangeable algorithms
// are provided: a recursive Butterworth filter of configurable order and a
// direct frequency-domain rectangular cutoff.
package filters

import (
	"fmt"
	"math"
)

// Kind selects the bandpass algorithm.
type Kind int

const (
	// KindButterworth applies a recursive digital filter of configurable
	// order, run forward and backward for zero phase distortion.
	KindButterworth Kind = iota

	// KindRectangular zeroes frequency bins outside the passband directly
	// in the FFT domain.
	KindRectangular
)

func (k Kind) String() string {
	switch k {
	case KindButterworth:
		return "butterworth"
	case KindRectangular:
		return "rectangular"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration string to a filter Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "butterworth", "":
		return KindButterworth, nil
	case "rectangular":
		return KindRectangular, nil
	default:
		return 0, fmt.Errorf("unknown filter type %q", name)
	}
}

// Cutoff is an explicitly optional cutoff frequency. The zero value is the
// named disabled state, distinct from a cutoff computed to 0 Hz.
type Cutoff struct {
	Enabled bool    `json:"enabled"`
	Hz      float64 `json:"hz"`
}

// CutoffAt returns an enabled cutoff at the given frequency.
func CutoffAt(hz float64) Cutoff {
	return Cutoff{Enabled: true, Hz: hz}
}

// NoCutoff returns the disabled state.
func NoCutoff() Cutoff {
	return Cutoff{}
}

// Config describes one bandpass filter stage.
type Config struct {
	Kind  Kind   `json:"kind"`
	Order int    `json:"order"` // Butterworth order, ignored for rectangular
	Low   Cutoff `json:"low"`
	High  Cutoff `json:"high"`

	// RestoreMean re-adds each channel's original mean after filtering when
	// a low cutoff is set, since bandpass filtering removes the DC term.
	RestoreMean bool `json:"restore_mean"`
}

// DefaultConfig returns a 4th-order Butterworth stage with mean restoration.
func DefaultConfig() Config {
	return Config{
		Kind:        KindButterworth,
		Order:       4,
		RestoreMean: true,
	}
}

// Enabled reports whether any cutoff is configured. With both cutoffs
// disabled the filtered computation path should be skipped entirely.
func (c Config) Enabled() bool {
	return c.Low.Enabled || c.High.Enabled
}

// CutoffError reports an invalid cutoff combination. It is fatal for the
// logger being screened but must not stop other loggers in the run.
type CutoffError struct {
	Low     Cutoff
	High    Cutoff
	Nyquist float64
	Reason  string
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("invalid filter cutoffs (low=%+v high=%+v nyquist=%g Hz): %s",
		e.Low, e.High, e.Nyquist, e.Reason)
}

// Validate checks the cutoff combination against the sampling rate.
func (c Config) Validate(fs float64) error {
	nyquist := fs / 2

	if c.Low.Enabled && c.High.Enabled && c.Low.Hz >= c.High.Hz {
		return &CutoffError{Low: c.Low, High: c.High, Nyquist: nyquist,
			Reason: "low cutoff must be below high cutoff"}
	}
	for _, cut := range []Cutoff{c.Low, c.High} {
		if !cut.Enabled {
			continue
		}
		if cut.Hz <= 0 {
			return &CutoffError{Low: c.Low, High: c.High, Nyquist: nyquist,
				Reason: "cutoff must be positive"}
		}
		if cut.Hz >= nyquist {
			return &CutoffError{Low: c.Low, High: c.High, Nyquist: nyquist,
				Reason: "cutoff must be below the Nyquist frequency"}
		}
	}
	if c.Kind == KindButterworth && c.Order < 1 {
		return &CutoffError{Low: c.Low, High: c.High, Nyquist: nyquist,
			Reason: fmt.Sprintf("filter order must be at least 1, got %d", c.Order)}
	}

	return nil
}

// Apply filters every channel against the configured passband and returns
// the filtered copies. The input is never modified. With both cutoffs
// disabled the output is an identical copy.
//
// NaN samples (missing values) are replaced by the channel mean for the
// duration of the filter pass and restored to NaN afterwards, so the
// filtered and unfiltered variants reduce over the same valid population;
// all-NaN channels pass through untouched.
func Apply(channels [][]float64, fs float64, cfg Config) ([][]float64, error) {
	if err := cfg.Validate(fs); err != nil {
		return nil, err
	}

	out := make([][]float64, len(channels))

	if !cfg.Enabled() {
		for c, data := range channels {
			out[c] = append([]float64(nil), data...)
		}
		return out, nil
	}

	for c, data := range channels {
		mean, valid := nanMean(data)
		if valid == 0 {
			out[c] = append([]float64(nil), data...)
			continue
		}

		clean := make([]float64, len(data))
		for i, v := range data {
			if math.IsNaN(v) {
				clean[i] = mean
			} else {
				clean[i] = v
			}
		}

		var filtered []float64
		switch cfg.Kind {
		case KindRectangular:
			filtered = Rectangular(clean, fs, cfg.Low, cfg.High)
		default:
			filtered = butterworthBandpass(clean, fs, cfg.Order, cfg.Low, cfg.High)
		}

		if cfg.Low.Enabled && cfg.RestoreMean {
			for i := range filtered {
				filtered[i] += mean
			}
		}

		// the patched samples are synthetic; keep them missing in the output
		for i, v := range data {
			if math.IsNaN(v) {
				filtered[i] = math.NaN()
			}
		}

		out[c] = filtered
	}

	return out, nil
}

// nanMean returns the mean of the non-NaN samples and their count.
func nanMean(data []float64) (float64, int) {
	var sum float64
	var n int
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}
