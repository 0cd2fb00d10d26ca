package windowing

import "math"

const defaultKaiserBeta = 6.0

// Kaiser represents a Kaiser window with shape parameter beta. Matches
// numpy.kaiser(n, beta).
type Kaiser struct {
	base
	beta float64
}

// NewKaiser creates a new Kaiser window
func NewKaiser(size int, beta float64) *Kaiser {
	k := &Kaiser{base: base{size: size, typ: TypeKaiser}, beta: beta}
	k.generate()
	return k
}

func (k *Kaiser) generate() {
	k.coefficients = make([]float64, k.size)

	if k.size == 1 {
		k.coefficients[0] = 1.0
		return
	}

	denominator := besselI0(k.beta)
	for i := 0; i < k.size; i++ {
		x := 2.0*float64(i)/float64(k.size-1) - 1.0
		arg := k.beta * math.Sqrt(1.0-x*x)
		k.coefficients[i] = besselI0(arg) / denominator
	}
}

// Beta returns the window shape parameter.
func (k *Kaiser) Beta() float64 {
	return k.beta
}

// besselI0 computes the modified Bessel function of the first kind, order 0.
// Polynomial approximation from Abramowitz and Stegun.
func besselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < 3.75 {
		y := x / 3.75
		y2 := y * y
		return 1.0 + y2*(3.5156229+
			y2*(3.0899424+
				y2*(1.2067492+
					y2*(0.2659732+
						y2*(0.0360768+
							y2*0.0045813)))))
	}

	y := 3.75 / ax
	return (math.Exp(ax) / math.Sqrt(ax)) * (0.39894228 +
		y*(0.01328592+
			y*(0.00225319+
				y*(-0.00157565+
					y*(0.00916281+
						y*(-0.02057706+
							y*(0.02635537+
								y*(-0.01647633+
									y*0.00392377))))))))
}
