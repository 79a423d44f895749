package pricing

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
	"gonum.org/v1/gonum/optimize"
)

const (
	basisPoints = 1e4
	minTau      = 1e-3
)

// NelsonSiegel is a parametric zero-coupon yield curve:
//
//	y(t) = b0 + b1·(1-e^(-t/τ))/(t/τ) + b2·((1-e^(-t/τ))/(t/τ) - e^(-t/τ))
type NelsonSiegel struct {
	Beta0 float64 `json:"beta0"`
	Beta1 float64 `json:"beta1"`
	Beta2 float64 `json:"beta2"`
	Tau   float64 `json:"tau"`
}

// Yield returns the continuously compounded zero rate at maturity t years.
func (ns NelsonSiegel) Yield(t float64) float64 {
	if t <= 0 {
		return ns.Beta0 + ns.Beta1
	}
	x := t / ns.Tau
	decay := math.Exp(-x)
	slope := (1 - decay) / x
	return ns.Beta0 + ns.Beta1*slope + ns.Beta2*(slope-decay)
}

func (ns NelsonSiegel) DiscountFactor(t float64) float64 {
	return math.Exp(-ns.Yield(t) * t)
}

// CurveFit is a fitted curve and its in-sample error in basis points.
type CurveFit struct {
	Curve     NelsonSiegel `json:"curve"`
	RMSEBps   float64      `json:"rmseBps"`
	Fitted    []float64    `json:"fitted"`
	Maturity  []float64    `json:"maturity"`
	Evaluated int          `json:"evaluations"`
}

// FitNelsonSiegel least-squares fits a Nelson-Siegel curve to observed zero
// yields with Nelder-Mead. Residuals are measured in basis points.
func FitNelsonSiegel(maturities, yields []float64) (CurveFit, error) {
	if len(maturities) != len(yields) {
		return CurveFit{}, models.NewConfigurationError("yields", "got %d yields for %d maturities", len(yields), len(maturities))
	}
	if len(maturities) < 4 {
		return CurveFit{}, models.NewConfigurationError("maturities", "need at least 4 points, got %d", len(maturities))
	}
	for i, t := range maturities {
		if math.IsNaN(t) || t <= 0 || math.IsInf(t, 0) {
			return CurveFit{}, models.NewDomainError("maturities", t, "must be finite and positive")
		}
		if math.IsNaN(yields[i]) || math.IsInf(yields[i], 0) {
			return CurveFit{}, models.NewDomainError("yields", yields[i], "must be finite")
		}
	}

	curveOf := func(x []float64) NelsonSiegel {
		return NelsonSiegel{Beta0: x[0], Beta1: x[1], Beta2: x[2], Tau: math.Abs(x[3]) + minTau}
	}
	sse := func(ns NelsonSiegel) float64 {
		sum := 0.0
		for i, t := range maturities {
			r := (ns.Yield(t) - yields[i]) * basisPoints
			sum += r * r
		}
		return sum
	}

	short, long := yields[argMin(maturities)], yields[argMax(maturities)]
	initialGuess := []float64{long, short - long, 0, 1.5}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return sse(curveOf(x))
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 20000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 1000,
		},
	}

	result, err := optimize.Minimize(problem, initialGuess, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return CurveFit{}, err
	}

	curve := curveOf(result.X)
	fitted := make([]float64, len(maturities))
	for i, t := range maturities {
		fitted[i] = curve.Yield(t)
	}
	return CurveFit{
		Curve:     curve,
		RMSEBps:   math.Sqrt(sse(curve) / float64(len(maturities))),
		Fitted:    fitted,
		Maturity:  append([]float64(nil), maturities...),
		Evaluated: result.Stats.FuncEvaluations,
	}, nil
}

func argMin(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x < xs[best] {
			best = i
		}
	}
	return best
}

func argMax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
