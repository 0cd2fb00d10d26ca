// Package integrate converts selected acceleration channels to displacement
// and angular-rate channels to angle via FFT-domain integration, with an
// automatic sign resolver for gravity contamination and a running per-logger
// RMS summary.
package integrate

import (
	"fmt"
	"math"
	"time"

	"github.com/metocean-tools/logscreen/filters"
	"github.com/metocean-tools/logscreen/frame"
)

// standard gravity, m/s²
const gravity = 9.80665

// Params configures the integrator for one logger.
type Params struct {
	// AccChannels and RateChannels are indices into the frame's channel
	// columns. AccChannels[i] is gravity-corrected using the angle derived
	// from RateChannels[i] when both exist.
	AccChannels  []int `json:"acc_channels"`
	RateChannels []int `json:"rate_channels"`

	// Low and High bound the integration passband. The filter is always the
	// rectangular frequency-domain cutoff regardless of the logger's general
	// filter setting.
	Low  filters.Cutoff `json:"low"`
	High filters.Cutoff `json:"high"`

	// GravityCorrection subtracts the gravity component projected onto the
	// tilted accelerometer axis, using the contemporaneous angle channel.
	GravityCorrection bool `json:"gravity_correction"`

	// RMSSummary accumulates one summary row per file.
	RMSSummary bool `json:"rms_summary"`
}

// Result is the per-file table of derived channels aligned to the source
// file's index.
type Result struct {
	Path       string      `json:"path"`
	Elapsed    []float64   `json:"elapsed"`
	Timestamps []time.Time `json:"timestamps,omitempty"`
	Names      []string    `json:"names"`
	Units      []string    `json:"units"`
	Channels   [][]float64 `json:"channels"`
}

// SummaryRow is the per-file RMS of every derived channel.
type SummaryRow struct {
	Path string    `json:"path"`
	RMS  []float64 `json:"rms"`
}

// RMSSummary accumulates summary rows for the logger's lifetime, keyed by
// filename in processing order.
type RMSSummary struct {
	Names []string     `json:"names"`
	Units []string     `json:"units"`
	Rows  []SummaryRow `json:"rows"`
}

// Integrator runs the per-file integration pass. It is stateful only for
// the resolved gravity sign and the RMS summary; files are otherwise
// independent.
type Integrator struct {
	params Params

	// gravity sign, resolved from the first file and reused unchanged for
	// the rest of the campaign
	sign         float64
	signResolved bool

	summary *RMSSummary
}

// NewIntegrator creates an integrator for one logger.
func NewIntegrator(params Params) (*Integrator, error) {
	if len(params.AccChannels) == 0 && len(params.RateChannels) == 0 {
		return nil, fmt.Errorf("no acceleration or angular-rate channels selected")
	}
	if params.Low.Enabled && params.High.Enabled && params.Low.Hz >= params.High.Hz {
		return nil, &filters.CutoffError{Low: params.Low, High: params.High,
			Reason: "low cutoff must be below high cutoff"}
	}

	return &Integrator{params: params, summary: &RMSSummary{}}, nil
}

// Sign returns the resolved gravity-correction sign (+1 or −1) and whether
// resolution has happened yet.
func (ig *Integrator) Sign() (float64, bool) {
	return ig.sign, ig.signResolved
}

// Summary returns the accumulated per-logger RMS summary.
func (ig *Integrator) Summary() *RMSSummary {
	return ig.summary
}

// Process integrates one file's frame. Angles are computed before
// gravity-corrected accelerations because the correction needs
// contemporaneous angle values.
func (ig *Integrator) Process(f *frame.Frame) (*Result, error) {
	fs := f.SampleRate()
	if fs <= 0 {
		return nil, fmt.Errorf("%s: cannot estimate sampling rate", f.Path)
	}

	res := &Result{
		Path:    f.Path,
		Elapsed: append([]float64(nil), f.Elapsed...),
	}
	if f.HasTimestamps() {
		res.Timestamps = append([]time.Time(nil), f.Timestamps...)
	}

	// Angles first: single integration of each angular-rate channel.
	angles := make([][]float64, len(ig.params.RateChannels))
	for i, c := range ig.params.RateChannels {
		if c < 0 || c >= f.NumChannels() {
			return nil, fmt.Errorf("%s: angular-rate channel %d out of range", f.Path, c)
		}
		angles[i] = fftIntegrate(f.Channels[c], fs, ig.params.Low, ig.params.High, 1)

		res.Names = append(res.Names, f.Names[c]+" angle")
		res.Units = append(res.Units, integratedUnit(unitOf(f, c)))
		res.Channels = append(res.Channels, angles[i])
	}

	// Displacements: double integration of each (optionally
	// gravity-corrected) acceleration channel.
	for i, c := range ig.params.AccChannels {
		if c < 0 || c >= f.NumChannels() {
			return nil, fmt.Errorf("%s: acceleration channel %d out of range", f.Path, c)
		}

		acc := f.Channels[c]
		if ig.params.GravityCorrection && i < len(angles) {
			if !ig.signResolved {
				ig.sign = resolveSign(acc, angles[i], fs, ig.params.Low, ig.params.High)
				ig.signResolved = true
			}
			acc = applyGravityCorrection(acc, angles[i], ig.sign)
		}

		disp := fftIntegrate(acc, fs, ig.params.Low, ig.params.High, 2)

		res.Names = append(res.Names, f.Names[c]+" disp")
		res.Units = append(res.Units, doublyIntegratedUnit(unitOf(f, c)))
		res.Channels = append(res.Channels, disp)
	}

	if ig.params.RMSSummary {
		if ig.summary.Names == nil {
			ig.summary.Names = append([]string(nil), res.Names...)
			ig.summary.Units = append([]string(nil), res.Units...)
		}
		row := SummaryRow{Path: f.Path, RMS: make([]float64, len(res.Channels))}
		for i, ch := range res.Channels {
			row.RMS[i] = rms(ch)
		}
		ig.summary.Rows = append(ig.summary.Rows, row)
	}

	return res, nil
}

// resolveSign tries both candidate gravity signs, bandpass-filters each
// corrected candidate and adopts the sign with the lower filtered RMS.
// Resolution happens once per logger, on the first file only; recomputing
// per file could flip the sign mid-campaign.
func resolveSign(acc, angle []float64, fs float64, low, high filters.Cutoff) float64 {
	best := 1.0
	bestRMS := math.Inf(1)

	for _, sign := range []float64{1, -1} {
		corrected := applyGravityCorrection(acc, angle, sign)
		filtered := filters.Rectangular(corrected, fs, low, high)

		if r := rms(filtered); r < bestRMS {
			bestRMS = r
			best = sign
		}
	}

	return best
}

// applyGravityCorrection removes the gravity component projected onto the
// tilted axis: a' = a + sign · g · sin(θ), with θ in degrees.
func applyGravityCorrection(acc, angle []float64, sign float64) []float64 {
	out := make([]float64, len(acc))
	for i, a := range acc {
		theta := 0.0
		if i < len(angle) {
			theta = angle[i] * math.Pi / 180.0
		}
		out[i] = a + sign*gravity*math.Sin(theta)
	}
	return out
}

func unitOf(f *frame.Frame, c int) string {
	if c < len(f.Units) {
		return f.Units[c]
	}
	return ""
}

// integratedUnit maps a rate unit to its single integral.
func integratedUnit(unit string) string {
	switch unit {
	case "deg/s", "°/s":
		return "deg"
	case "rad/s":
		return "rad"
	default:
		return ""
	}
}

// doublyIntegratedUnit maps an acceleration unit to its double integral.
func doublyIntegratedUnit(unit string) string {
	switch unit {
	case "m/s^2", "m/s2", "m/s²":
		return "m"
	case "mm/s^2", "mm/s2":
		return "mm"
	case "g":
		return "m"
	default:
		return ""
	}
}
