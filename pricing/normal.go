package pricing

import "math"

// Zelen & Severo (Abramowitz & Stegun 26.2.17) coefficients, |error| < 7.5e-8.
const (
	zsP  = 0.2316419
	zsB1 = 0.319381530
	zsB2 = -0.356563782
	zsB3 = 1.781477937
	zsB4 = -1.821255978
	zsB5 = 1.330274429
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return invSqrt2Pi * math.Exp(-0.5*x*x)
}

// NormCDF is the standard normal distribution function, evaluated with the
// Zelen-Severo rational approximation rather than math.Erf.
func NormCDF(x float64) float64 {
	ax := math.Abs(x)
	t := 1 / (1 + zsP*ax)
	poly := t * (zsB1 + t*(zsB2+t*(zsB3+t*(zsB4+t*zsB5))))
	upper := NormPDF(ax) * poly
	if x >= 0 {
		return 1 - upper
	}
	return upper
}
