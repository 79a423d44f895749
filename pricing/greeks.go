package pricing

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
)

const maxSweepPoints = 1000

// SweepPoint is one sample of a price/Greeks curve against the underlying.
type SweepPoint struct {
	Spot   float64       `json:"spot"`
	Price  float64       `json:"price"`
	Greeks models.Greeks `json:"greeks"`
}

// SweepSpot reprices params at `points` evenly spaced spots in [from, to].
func SweepSpot(params models.OptionParameters, from, to float64, points int) ([]SweepPoint, error) {
	if points < 2 || points > maxSweepPoints {
		return nil, models.NewConfigurationError("points", "must be between 2 and %d, got %d", maxSweepPoints, points)
	}
	if from <= 0 || math.IsNaN(from) {
		return nil, models.NewDomainError("from", from, "must be positive")
	}
	if to <= from || math.IsInf(to, 0) {
		return nil, models.NewDomainError("to", to, "must be finite and greater than from")
	}

	step := (to - from) / float64(points-1)
	out := make([]SweepPoint, points)
	for i := range out {
		p := params
		p.Spot = from + float64(i)*step
		res, err := PriceBlackScholes(p)
		if err != nil {
			return nil, err
		}
		price := res.CallPrice
		if !p.IsCall() {
			price = res.PutPrice
		}
		out[i] = SweepPoint{Spot: p.Spot, Price: price, Greeks: res.Greeks}
	}
	return out, nil
}

// ShadowGamma returns the up and down shadow gammas: the change in delta when
// spot moves by ±priceChange (relative) while volatility moves by ±volChange
// (relative) in the same direction.
func ShadowGamma(params models.OptionParameters, priceChange, volChange float64) (float64, float64, error) {
	if priceChange <= 0 || priceChange >= 1 {
		return 0, 0, models.NewDomainError("priceChange", priceChange, "must be in (0,1)")
	}
	if volChange < 0 || volChange >= 1 {
		return 0, 0, models.NewDomainError("volChange", volChange, "must be in [0,1)")
	}

	base, err := delta(params)
	if err != nil {
		return 0, 0, err
	}

	up := params
	up.Spot = params.Spot * (1 + priceChange)
	up.Volatility = params.Volatility * (1 + volChange)
	upDelta, err := delta(up)
	if err != nil {
		return 0, 0, err
	}

	down := params
	down.Spot = params.Spot * (1 - priceChange)
	down.Volatility = params.Volatility * (1 - volChange)
	downDelta, err := delta(down)
	if err != nil {
		return 0, 0, err
	}

	shadowUp := (upDelta - base) / (up.Spot - params.Spot)
	shadowDown := (base - downDelta) / (params.Spot - down.Spot)
	return shadowUp, shadowDown, nil
}

// Vomma (skew gamma) is the central difference of vega with respect to
// volatility, in vega units per vol point.
func Vomma(params models.OptionParameters, volStep float64) (float64, error) {
	if volStep <= 0 || volStep >= params.Volatility {
		return 0, models.NewDomainError("volStep", volStep, "must be positive and below volatility")
	}
	up := params
	up.Volatility += volStep
	down := params
	down.Volatility -= volStep

	upRes, err := PriceBlackScholes(up)
	if err != nil {
		return 0, err
	}
	downRes, err := PriceBlackScholes(down)
	if err != nil {
		return 0, err
	}
	return (upRes.Greeks.Vega - downRes.Greeks.Vega) / (2 * volStep), nil
}

func delta(params models.OptionParameters) (float64, error) {
	res, err := PriceBlackScholes(params)
	if err != nil {
		return 0, err
	}
	return res.Greeks.Delta, nil
}

// SecondOrderGreeks groups the finite-difference sensitivities reported next
// to the closed-form Greeks.
type SecondOrderGreeks struct {
	ShadowGammaUp   float64 `json:"shadowGammaUp"`
	ShadowGammaDown float64 `json:"shadowGammaDown"`
	Vomma           float64 `json:"vomma"`
}

// SecondOrder evaluates shadow gamma for a 1% spot move with a 1% relative
// vol move, and vomma with a step of a tenth of the volatility.
func SecondOrder(params models.OptionParameters) (SecondOrderGreeks, error) {
	up, down, err := ShadowGamma(params, 0.01, 0.01)
	if err != nil {
		return SecondOrderGreeks{}, err
	}
	vomma, err := Vomma(params, params.Volatility/10)
	if err != nil {
		return SecondOrderGreeks{}, err
	}
	return SecondOrderGreeks{ShadowGammaUp: up, ShadowGammaDown: down, Vomma: vomma}, nil
}
