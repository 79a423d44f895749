package pricing

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/shopspring/decimal"
)

const (
	maxYieldPoints = 1000
	maxBondYield   = 10.0 // 1000%, upper bracket for yield solving
)

// CashFlow is one scheduled payment. Amount is exact in decimal; PresentValue
// is discounted at the bond's yield.
type CashFlow struct {
	Period       int             `json:"period"`
	Time         float64         `json:"time"`
	Amount       decimal.Decimal `json:"amount"`
	PresentValue float64         `json:"presentValue"`
}

// YieldPoint compares exact repricing with the duration (linear) and
// duration-convexity (quadratic) approximations at Yield = base + Shift.
type YieldPoint struct {
	Shift           float64 `json:"shift"`
	Yield           float64 `json:"yield"`
	ExactPrice      float64 `json:"exactPrice"`
	DurationApprox  float64 `json:"durationApprox"`
	ConvexityApprox float64 `json:"convexityApprox"`
}

// PriceBond returns price, Macaulay and modified duration (years) and
// convexity (years²) of a fixed-coupon bond.
func PriceBond(params models.BondParameters) (models.BondAnalytics, error) {
	if err := params.Validate(); err != nil {
		return models.BondAnalytics{}, err
	}
	n, _ := params.Periods()
	f := float64(params.PaymentsPerYear)
	g := 1 + params.YieldToMaturity/f
	coupon := params.CouponRate * params.FaceValue / f

	var price, weighted, convex float64
	for k := 1; k <= n; k++ {
		cf := coupon
		if k == n {
			cf += params.FaceValue
		}
		kf := float64(k)
		pv := cf / math.Pow(g, kf)
		price += pv
		weighted += kf / f * pv
		convex += kf * (kf + 1) * cf / math.Pow(g, kf+2)
	}

	macaulay := weighted / price
	return models.BondAnalytics{
		Price:            price,
		MacaulayDuration: macaulay,
		ModifiedDuration: macaulay / g,
		Convexity:        convex / (price * g * g * f * f),
	}, nil
}

// BondCashFlows lists every coupon and the final redemption.
func BondCashFlows(params models.BondParameters) ([]CashFlow, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n, _ := params.Periods()
	f := float64(params.PaymentsPerYear)
	g := 1 + params.YieldToMaturity/f

	face := decimal.NewFromFloat(params.FaceValue)
	coupon := face.Mul(decimal.NewFromFloat(params.CouponRate)).Div(decimal.NewFromInt(int64(params.PaymentsPerYear)))

	flows := make([]CashFlow, n)
	for k := 1; k <= n; k++ {
		amount := coupon
		if k == n {
			amount = amount.Add(face)
		}
		flows[k-1] = CashFlow{
			Period:       k,
			Time:         float64(k) / f,
			Amount:       amount,
			PresentValue: amount.InexactFloat64() / math.Pow(g, float64(k)),
		}
	}
	return flows, nil
}

// YieldSweep reprices the bond at `points` yields evenly spaced over
// [y-maxShift, y+maxShift].
func YieldSweep(params models.BondParameters, maxShift float64, points int) ([]YieldPoint, error) {
	if points < 2 || points > maxYieldPoints {
		return nil, models.NewConfigurationError("points", "must be between 2 and %d, got %d", maxYieldPoints, points)
	}
	if math.IsNaN(maxShift) || maxShift <= 0 || math.IsInf(maxShift, 0) {
		return nil, models.NewDomainError("maxShift", maxShift, "must be finite and positive")
	}
	base, err := PriceBond(params)
	if err != nil {
		return nil, err
	}

	step := 2 * maxShift / float64(points-1)
	out := make([]YieldPoint, points)
	for i := range out {
		shift := -maxShift + float64(i)*step
		shifted := params
		shifted.YieldToMaturity = params.YieldToMaturity + shift
		exact, err := PriceBond(shifted)
		if err != nil {
			return nil, err
		}
		linear := base.Price * (1 - base.ModifiedDuration*shift)
		out[i] = YieldPoint{
			Shift:           shift,
			Yield:           shifted.YieldToMaturity,
			ExactPrice:      exact.Price,
			DurationApprox:  linear,
			ConvexityApprox: linear + 0.5*base.Price*base.Convexity*shift*shift,
		}
	}
	return out, nil
}

// YieldFromPrice solves for the yield to maturity that reproduces price.
// params.YieldToMaturity seeds the Newton iteration.
func YieldFromPrice(params models.BondParameters, price float64) (float64, error) {
	if math.IsNaN(price) || price <= 0 || math.IsInf(price, 0) {
		return 0, models.NewDomainError("price", price, "must be finite and positive")
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}

	f := float64(params.PaymentsPerYear)
	lo, hi := -0.99*f, maxBondYield
	priceAt := func(y float64) (models.BondAnalytics, error) {
		p := params
		p.YieldToMaturity = y
		return PriceBond(p)
	}

	atLo, err := priceAt(lo)
	if err != nil {
		return 0, err
	}
	atHi, err := priceAt(hi)
	if err != nil {
		return 0, err
	}
	if price > atLo.Price || price < atHi.Price {
		return 0, models.NewDomainError("price", price, "no yield in search range reproduces this price")
	}

	y := params.YieldToMaturity
	for i := 0; i < maxIterations; i++ {
		a, err := priceAt(y)
		if err != nil {
			return 0, err
		}
		diff := a.Price - price
		if math.Abs(diff) < epsilon*math.Max(1, price) {
			return y, nil
		}
		// price falls as yield rises
		if diff > 0 {
			lo = y
		} else {
			hi = y
		}
		next := y + diff/(a.ModifiedDuration*a.Price)
		if a.ModifiedDuration <= 0 || next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		y = next
		if hi-lo < epsilon {
			return y, nil
		}
	}
	return 0, models.NewDomainError("price", price, "yield did not converge")
}
