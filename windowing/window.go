// Package windowing provides taper window functions for overlapped-segment
// PSD estimation.
package windowing

import "fmt"

// Type identifies a taper window function.
type Type string

const (
	TypeRectangular Type = "rectangular"
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
	TypeKaiser      Type = "kaiser"
)

// ParseType maps a configuration string to a window Type.
func ParseType(name string) (Type, error) {
	switch Type(name) {
	case TypeRectangular, TypeHann, TypeHamming, TypeBlackman, TypeKaiser:
		return Type(name), nil
	case "":
		return TypeHann, nil
	default:
		return "", fmt.Errorf("unknown window type %q", name)
	}
}

// Taper is a generated window function of fixed size.
type Taper interface {
	// Apply multiplies the window into a copy of the signal. Returns nil if
	// the signal length does not match the window size.
	Apply(signal []float64) []float64

	// Coefficients returns a copy of the window coefficients.
	Coefficients() []float64

	// SumSquares returns the sum of squared coefficients, used for PSD
	// normalization.
	SumSquares() float64

	Size() int
	Type() Type
}

// New creates a taper of the given type and size.
func New(t Type, size int) (Taper, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch t {
	case TypeRectangular:
		return NewRectangular(size), nil
	case TypeHann:
		return NewHann(size), nil
	case TypeHamming:
		return NewHamming(size), nil
	case TypeBlackman:
		return NewBlackman(size), nil
	case TypeKaiser:
		return NewKaiser(size, defaultKaiserBeta), nil
	default:
		return nil, fmt.Errorf("unknown window type %q", t)
	}
}

// base carries the shared bookkeeping for the concrete window types.
type base struct {
	size         int
	typ          Type
	coefficients []float64
}

func (b *base) Apply(signal []float64) []float64 {
	if len(signal) != b.size {
		return nil
	}

	windowed := make([]float64, b.size)
	for i := range signal {
		windowed[i] = signal[i] * b.coefficients[i]
	}

	return windowed
}

func (b *base) Coefficients() []float64 {
	coeffs := make([]float64, len(b.coefficients))
	copy(coeffs, b.coefficients)
	return coeffs
}

func (b *base) SumSquares() float64 {
	var sum float64
	for _, c := range b.coefficients {
		sum += c * c
	}
	return sum
}

func (b *base) Size() int {
	return b.size
}

func (b *base) Type() Type {
	return b.typ
}
