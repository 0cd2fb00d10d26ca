package filters

import (
	"math"
)

// Butterworth filtering as a cascade of biquad sections run forward and
// backward (zero phase). Coefficients follow the cookbook formulas from
// Robert Bristow-Johnson's "Cookbook formulae for audio EQ biquad filter
// coefficients".
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html

// biquad is one second-order section in Direct Form II.
type biquad struct {
	b0, b1, b2 float64 // numerator coefficients
	a1, a2     float64 // denominator coefficients (a0 normalized to 1)

	w1, w2 float64 // delay line
}

// process applies the section to a single sample.
//
// The difference equation is:
// w[n] = x[n] - a1*w[n-1] - a2*w[n-2]
// y[n] = b0*w[n] + b1*w[n-1] + b2*w[n-2]
func (bq *biquad) process(input float64) float64 {
	w := input - bq.a1*bq.w1 - bq.a2*bq.w2
	output := bq.b0*w + bq.b1*bq.w1 + bq.b2*bq.w2

	bq.w2 = bq.w1
	bq.w1 = w

	return output
}

// reset clears the section's delay line.
func (bq *biquad) reset() {
	bq.w1, bq.w2 = 0.0, 0.0
}

// firstOrder is a single-pole section used for odd filter orders.
type firstOrder struct {
	b0, b1 float64
	a1     float64

	x1, y1 float64
}

func (fo *firstOrder) process(input float64) float64 {
	output := fo.b0*input + fo.b1*fo.x1 - fo.a1*fo.y1
	fo.x1 = input
	fo.y1 = output
	return output
}

func (fo *firstOrder) reset() {
	fo.x1, fo.y1 = 0.0, 0.0
}

type section interface {
	process(float64) float64
	reset()
}

// butterworthQ returns the Q factors of the biquad sections of an N-th
// order Butterworth filter, derived from the prototype pole angles.
func butterworthQ(order int) []float64 {
	pairs := order / 2
	qs := make([]float64, 0, pairs)

	for k := 0; k < pairs; k++ {
		var theta float64
		if order%2 == 0 {
			theta = math.Pi * float64(2*k+1) / float64(2*order)
		} else {
			theta = math.Pi * float64(k+1) / float64(order)
		}
		qs = append(qs, 1.0/(2.0*math.Cos(theta)))
	}

	return qs
}

// lowpassSections builds the cascade for an N-th order Butterworth lowpass.
func lowpassSections(order int, cutoff, fs float64) []section {
	w0 := 2.0 * math.Pi * cutoff / fs
	if w0 >= math.Pi {
		w0 = math.Pi * 0.99
	}
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	sections := make([]section, 0, order/2+1)

	for _, q := range butterworthQ(order) {
		alpha := sinW0 / (2.0 * q)
		a0 := 1.0 + alpha

		sections = append(sections, &biquad{
			b0: (1.0 - cosW0) / 2.0 / a0,
			b1: (1.0 - cosW0) / a0,
			b2: (1.0 - cosW0) / 2.0 / a0,
			a1: -2.0 * cosW0 / a0,
			a2: (1.0 - alpha) / a0,
		})
	}

	if order%2 == 1 {
		k := math.Tan(w0 / 2.0)
		sections = append(sections, &firstOrder{
			b0: k / (k + 1.0),
			b1: k / (k + 1.0),
			a1: (k - 1.0) / (k + 1.0),
		})
	}

	return sections
}

// highpassSections builds the cascade for an N-th order Butterworth highpass.
func highpassSections(order int, cutoff, fs float64) []section {
	w0 := 2.0 * math.Pi * cutoff / fs
	if w0 >= math.Pi {
		w0 = math.Pi * 0.99
	}
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	sections := make([]section, 0, order/2+1)

	for _, q := range butterworthQ(order) {
		alpha := sinW0 / (2.0 * q)
		a0 := 1.0 + alpha

		sections = append(sections, &biquad{
			b0: (1.0 + cosW0) / 2.0 / a0,
			b1: -(1.0 + cosW0) / a0,
			b2: (1.0 + cosW0) / 2.0 / a0,
			a1: -2.0 * cosW0 / a0,
			a2: (1.0 - alpha) / a0,
		})
	}

	if order%2 == 1 {
		k := math.Tan(w0 / 2.0)
		sections = append(sections, &firstOrder{
			b0: 1.0 / (k + 1.0),
			b1: -1.0 / (k + 1.0),
			a1: (k - 1.0) / (k + 1.0),
		})
	}

	return sections
}

// runCascade pushes the whole buffer through every section in turn.
func runCascade(sections []section, input []float64) []float64 {
	output := append([]float64(nil), input...)

	for _, s := range sections {
		s.reset()
		for i, sample := range output {
			output[i] = s.process(sample)
		}
	}

	return output
}

// filtfilt applies the cascade forward and backward for zero phase. The
// signal is extended at both ends with reflected samples so the recursion
// settles before it reaches real data.
func filtfilt(build func() []section, input []float64, order int) []float64 {
	n := len(input)
	if n == 0 {
		return nil
	}

	pad := 3 * (order + 1) * 2
	if pad > n-1 {
		pad = n - 1
	}

	extended := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		extended = append(extended, 2*input[0]-input[i])
	}
	extended = append(extended, input...)
	for i := n - 2; i >= n-1-pad; i-- {
		extended = append(extended, 2*input[n-1]-input[i])
	}

	forward := runCascade(build(), extended)

	reverse(forward)
	backward := runCascade(build(), forward)
	reverse(backward)

	return backward[pad : pad+n]
}

func reverse(data []float64) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}

// butterworthBandpass applies a zero-phase Butterworth bandpass as a
// highpass at the low cutoff followed by a lowpass at the high cutoff.
// Disabled cutoffs drop the corresponding half.
func butterworthBandpass(data []float64, fs float64, order int, low, high Cutoff) []float64 {
	out := append([]float64(nil), data...)

	if low.Enabled {
		out = filtfilt(func() []section {
			return highpassSections(order, low.Hz, fs)
		}, out, order)
	}

	if high.Enabled {
		out = filtfilt(func() []section {
			return lowpassSections(order, high.Hz, fs)
		}, out, order)
	}

	return out
}
