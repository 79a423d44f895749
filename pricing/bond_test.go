package pricing

import (
	"math"
	"testing"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenYearPar() models.BondParameters {
	return models.BondParameters{
		FaceValue:       1000,
		CouponRate:      0.05,
		YieldToMaturity: 0.05,
		MaturityYears:   10,
		PaymentsPerYear: 2,
	}
}

func TestPriceBondReference(t *testing.T) {
	a, err := PriceBond(tenYearPar())
	require.NoError(t, err)

	assert.InDelta(t, 1000, a.Price, 1e-9)
	assert.InDelta(t, 7.9894, a.MacaulayDuration, 1e-4)
	// The published "duration ≈ 7.79" for this bond is the modified duration;
	// Macaulay is 7.99.
	assert.InDelta(t, 7.79, a.ModifiedDuration, 0.01)
	assert.InDelta(t, 7.7946, a.ModifiedDuration, 1e-4)
	assert.InDelta(t, 70.0809, a.Convexity, 1e-4)
}

func TestPriceBondAnnualDiscount(t *testing.T) {
	b := models.BondParameters{FaceValue: 1000, CouponRate: 0.04, YieldToMaturity: 0.05, MaturityYears: 5, PaymentsPerYear: 1}
	a, err := PriceBond(b)
	require.NoError(t, err)
	assert.InDelta(t, 956.7052, a.Price, 1e-4)
	assert.InDelta(t, 4.6203, a.MacaulayDuration, 1e-4)
}

func TestPriceBondZeroCoupon(t *testing.T) {
	b := tenYearPar()
	b.CouponRate = 0
	a, err := PriceBond(b)
	require.NoError(t, err)
	assert.InDelta(t, 1000/math.Pow(1.025, 20), a.Price, 1e-9)
	assert.InDelta(t, 10, a.MacaulayDuration, 1e-12)
}

func TestPriceBondDecreasingInYield(t *testing.T) {
	prev := math.Inf(1)
	for y := -0.02; y <= 0.25; y += 0.01 {
		b := tenYearPar()
		b.YieldToMaturity = y
		a, err := PriceBond(b)
		require.NoError(t, err)
		assert.Less(t, a.Price, prev, "yield %v", y)
		prev = a.Price
	}
}

func TestPriceBondValidation(t *testing.T) {
	mutations := map[string]func(*models.BondParameters){
		"zero face":          func(b *models.BondParameters) { b.FaceValue = 0 },
		"negative coupon":    func(b *models.BondParameters) { b.CouponRate = -0.01 },
		"zero maturity":      func(b *models.BondParameters) { b.MaturityYears = 0 },
		"no payments":        func(b *models.BondParameters) { b.PaymentsPerYear = 0 },
		"yield wipes out":    func(b *models.BondParameters) { b.YieldToMaturity = -2 },
		"fractional periods": func(b *models.BondParameters) { b.MaturityYears = 10.3 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			b := tenYearPar()
			mutate(&b)
			_, err := PriceBond(b)
			assert.ErrorIs(t, err, models.ErrDomain)
		})
	}
}

func TestBondCashFlows(t *testing.T) {
	flows, err := BondCashFlows(tenYearPar())
	require.NoError(t, err)
	require.Len(t, flows, 20)

	assert.Equal(t, "25", flows[0].Amount.String())
	assert.Equal(t, "1025", flows[19].Amount.String())
	assert.Equal(t, 10.0, flows[19].Time)

	total := 0.0
	for _, f := range flows {
		total += f.PresentValue
	}
	assert.InDelta(t, 1000, total, 1e-9)
}

func TestYieldSweep(t *testing.T) {
	points, err := YieldSweep(tenYearPar(), 0.02, 5)
	require.NoError(t, err)
	require.Len(t, points, 5)

	mid := points[2]
	assert.InDelta(t, 0, mid.Shift, 1e-15)
	assert.InDelta(t, 1000, mid.ExactPrice, 1e-9)
	assert.InDelta(t, 1000, mid.DurationApprox, 1e-9)

	for _, pt := range []YieldPoint{points[0], points[4]} {
		linearErr := math.Abs(pt.ExactPrice - pt.DurationApprox)
		quadErr := math.Abs(pt.ExactPrice - pt.ConvexityApprox)
		assert.Less(t, quadErr, linearErr)
		// Convexity makes the exact price lie above the tangent line.
		assert.Greater(t, pt.ExactPrice, pt.DurationApprox)
	}
	assert.InDelta(t, 1171.6864, points[0].ExactPrice, 1e-4)
	assert.InDelta(t, 844.1084, points[4].DurationApprox, 1e-4)
	assert.InDelta(t, 858.1246, points[4].ConvexityApprox, 1e-4)
}

func TestYieldSweepValidation(t *testing.T) {
	_, err := YieldSweep(tenYearPar(), 0.01, 1)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = YieldSweep(tenYearPar(), 0, 5)
	assert.ErrorIs(t, err, models.ErrDomain)
}

func TestYieldFromPriceRoundTrip(t *testing.T) {
	for _, y := range []float64{-0.01, 0.0, 0.03, 0.06, 0.15} {
		b := tenYearPar()
		b.YieldToMaturity = y
		a, err := PriceBond(b)
		require.NoError(t, err)

		b.YieldToMaturity = 0.05
		got, err := YieldFromPrice(b, a.Price)
		require.NoError(t, err)
		assert.InDelta(t, y, got, 1e-7)
	}

	got, err := YieldFromPrice(tenYearPar(), 925.6126256977221)
	require.NoError(t, err)
	assert.InDelta(t, 0.06, got, 1e-7)
}

func TestYieldFromPriceRejectsImpossiblePrices(t *testing.T) {
	_, err := YieldFromPrice(tenYearPar(), 0)
	assert.ErrorIs(t, err, models.ErrDomain)

	_, err = YieldFromPrice(tenYearPar(), 1)
	assert.ErrorIs(t, err, models.ErrDomain)
}
