package pricing

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
)

const (
	maxIterations = 100
	epsilon       = 1e-8

	minImpliedVol = 1e-6
	maxImpliedVol = 5.0
)

// PriceBlackScholes returns call and put prices plus the Greeks of the option
// named by params.OptionType. Vega and rho are per 1 point move (divided by
// 100); theta is per year.
func PriceBlackScholes(params models.OptionParameters) (models.PricingResult, error) {
	if err := params.Validate(); err != nil {
		return models.PricingResult{}, err
	}

	S, K, T, r, sigma := params.Spot, params.Strike, params.TimeToMaturity, params.RiskFreeRate, params.Volatility
	sqrtT := math.Sqrt(T)
	d1, d2 := calculateD1D2(S, K, T, r, sigma)
	discount := math.Exp(-r * T)

	call := S*NormCDF(d1) - K*discount*NormCDF(d2)
	put := K*discount*NormCDF(-d2) - S*NormCDF(-d1)

	pdf := NormPDF(d1)
	greeks := models.Greeks{
		Delta: NormCDF(d1),
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * sqrtT * pdf / 100,
		Theta: -(S*pdf*sigma)/(2*sqrtT) - r*K*discount*NormCDF(d2),
		Rho:   K * T * discount * NormCDF(d2) / 100,
	}
	if !params.IsCall() {
		greeks.Delta = NormCDF(d1) - 1
		greeks.Theta = -(S*pdf*sigma)/(2*sqrtT) + r*K*discount*NormCDF(-d2)
		greeks.Rho = -K * T * discount * NormCDF(-d2) / 100
	}

	return models.PricingResult{
		CallPrice: call,
		PutPrice:  put,
		Greeks:    greeks,
	}, nil
}

func calculateD1D2(S, K, T, r, sigma float64) (float64, float64) {
	volSqrtT := sigma * math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / volSqrtT
	return d1, d1 - volSqrtT
}

// optionPrice prices the option named by isCall without Greeks or validation.
func optionPrice(S, K, T, r, sigma float64, isCall bool) float64 {
	d1, d2 := calculateD1D2(S, K, T, r, sigma)
	if isCall {
		return S*NormCDF(d1) - K*math.Exp(-r*T)*NormCDF(d2)
	}
	return K*math.Exp(-r*T)*NormCDF(-d2) - S*NormCDF(-d1)
}

// rawVega is dPrice/dSigma, unscaled.
func rawVega(S, K, T, r, sigma float64) float64 {
	d1, _ := calculateD1D2(S, K, T, r, sigma)
	return S * NormPDF(d1) * math.Sqrt(T)
}

// ImpliedVolatility inverts the Black-Scholes price of params.OptionType.
// params.Volatility is used as the starting guess when positive. Newton steps
// that leave the bracket fall back to bisection.
func ImpliedVolatility(params models.OptionParameters, marketPrice float64) (float64, error) {
	guess := params.Volatility
	if guess <= 0 {
		guess = 0.5
		params.Volatility = guess
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}

	S, K, T, r := params.Spot, params.Strike, params.TimeToMaturity, params.RiskFreeRate
	isCall := params.IsCall()

	lower, upper := priceBounds(S, K, T, r, isCall)
	if math.IsNaN(marketPrice) || marketPrice <= lower || marketPrice >= upper {
		return 0, models.NewDomainError("marketPrice", marketPrice, "outside no-arbitrage bounds")
	}

	lo, hi := minImpliedVol, maxImpliedVol
	if optionPrice(S, K, T, r, hi, isCall) < marketPrice {
		return 0, models.NewDomainError("marketPrice", marketPrice, "implied volatility above search range")
	}

	sigma := math.Min(math.Max(guess, lo), hi)
	for i := 0; i < maxIterations; i++ {
		diff := optionPrice(S, K, T, r, sigma, isCall) - marketPrice
		if math.Abs(diff) < epsilon {
			return sigma, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		next := sigma
		if vega := rawVega(S, K, T, r, sigma); vega > epsilon {
			next = sigma - diff/vega
		}
		if next <= lo || next >= hi || next == sigma {
			next = 0.5 * (lo + hi)
		}
		sigma = next
		if hi-lo < epsilon {
			return sigma, nil
		}
	}
	return 0, models.NewDomainError("marketPrice", marketPrice, "implied volatility did not converge")
}

func priceBounds(S, K, T, r float64, isCall bool) (float64, float64) {
	discK := K * math.Exp(-r*T)
	if isCall {
		return math.Max(S-discK, 0), S
	}
	return math.Max(discK-S, 0), discK
}
