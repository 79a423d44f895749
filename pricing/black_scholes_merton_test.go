package pricing

import (
	"math"
	"testing"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atTheMoney() models.OptionParameters {
	return models.OptionParameters{
		Spot:           100,
		Strike:         100,
		Volatility:     0.2,
		RiskFreeRate:   0.05,
		TimeToMaturity: 1,
	}
}

func TestNormCDF(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-7)
	assert.InDelta(t, 0.975002, NormCDF(1.96), 1e-6)
	assert.InDelta(t, 0.024998, NormCDF(-1.96), 1e-6)
	for _, x := range []float64{-3, -1.2, -0.3, 0.4, 2.5} {
		assert.InDelta(t, 1, NormCDF(x)+NormCDF(-x), 1e-12)
		assert.InDelta(t, 0.5*math.Erfc(-x/math.Sqrt2), NormCDF(x), 7.5e-8)
	}
}

func TestPriceBlackScholesReference(t *testing.T) {
	res, err := PriceBlackScholes(atTheMoney())
	require.NoError(t, err)

	assert.InDelta(t, 10.450576, res.CallPrice, 1e-5)
	assert.InDelta(t, 5.573518, res.PutPrice, 1e-5)
	assert.InDelta(t, 0.636831, res.Greeks.Delta, 1e-5)
	assert.InDelta(t, 0.018762, res.Greeks.Gamma, 1e-5)
	assert.InDelta(t, 0.375240, res.Greeks.Vega, 1e-4)
}

func TestPutCallParity(t *testing.T) {
	cases := []models.OptionParameters{
		atTheMoney(),
		{Spot: 80, Strike: 100, Volatility: 0.35, RiskFreeRate: 0.02, TimeToMaturity: 0.5},
		{Spot: 150, Strike: 100, Volatility: 0.1, RiskFreeRate: 0.08, TimeToMaturity: 3},
		{Spot: 100, Strike: 105, Volatility: 0.6, RiskFreeRate: -0.01, TimeToMaturity: 0.05},
	}
	for _, p := range cases {
		res, err := PriceBlackScholes(p)
		require.NoError(t, err)
		parity := p.Spot - p.Strike*math.Exp(-p.RiskFreeRate*p.TimeToMaturity)
		assert.InDelta(t, parity, res.CallPrice-res.PutPrice, 1e-4)
	}
}

func TestGreeksBounds(t *testing.T) {
	for _, spot := range []float64{50, 80, 100, 120, 200} {
		for _, kind := range []models.OptionType{models.Call, models.Put} {
			p := atTheMoney()
			p.Spot = spot
			p.OptionType = kind
			res, err := PriceBlackScholes(p)
			require.NoError(t, err)

			g := res.Greeks
			if kind == models.Call {
				assert.True(t, g.Delta >= 0 && g.Delta <= 1, "call delta %v", g.Delta)
				assert.GreaterOrEqual(t, g.Rho, 0.0)
			} else {
				assert.True(t, g.Delta >= -1 && g.Delta <= 0, "put delta %v", g.Delta)
				assert.LessOrEqual(t, g.Rho, 0.0)
			}
			assert.GreaterOrEqual(t, g.Gamma, 0.0)
			assert.GreaterOrEqual(t, g.Vega, 0.0)
		}
	}
}

func TestPutGreeksDifferFromCall(t *testing.T) {
	call, err := PriceBlackScholes(atTheMoney())
	require.NoError(t, err)

	p := atTheMoney()
	p.OptionType = models.Put
	put, err := PriceBlackScholes(p)
	require.NoError(t, err)

	assert.InDelta(t, call.Greeks.Delta-1, put.Greeks.Delta, 1e-12)
	assert.Equal(t, call.Greeks.Gamma, put.Greeks.Gamma)
	assert.Equal(t, call.Greeks.Vega, put.Greeks.Vega)
	assert.Equal(t, call.CallPrice, put.CallPrice)
}

func TestPriceBlackScholesRejectsDegenerateInputs(t *testing.T) {
	mutations := map[string]func(*models.OptionParameters){
		"zero vol":      func(p *models.OptionParameters) { p.Volatility = 0 },
		"zero time":     func(p *models.OptionParameters) { p.TimeToMaturity = 0 },
		"negative spot": func(p *models.OptionParameters) { p.Spot = -1 },
		"nan strike":    func(p *models.OptionParameters) { p.Strike = math.NaN() },
		"inf rate":      func(p *models.OptionParameters) { p.RiskFreeRate = math.Inf(1) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := atTheMoney()
			mutate(&p)
			_, err := PriceBlackScholes(p)
			assert.ErrorIs(t, err, models.ErrDomain)
		})
	}

	p := atTheMoney()
	p.OptionType = "straddle"
	_, err := PriceBlackScholes(p)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for _, kind := range []models.OptionType{models.Call, models.Put} {
		for _, vol := range []float64{0.05, 0.2, 0.8, 1.5} {
			p := atTheMoney()
			p.Strike = 110
			p.OptionType = kind
			p.Volatility = vol
			res, err := PriceBlackScholes(p)
			require.NoError(t, err)

			price := res.CallPrice
			if kind == models.Put {
				price = res.PutPrice
			}
			p.Volatility = 0.3
			iv, err := ImpliedVolatility(p, price)
			require.NoError(t, err)
			assert.InDelta(t, vol, iv, 1e-5, "%s at vol %v", kind, vol)
		}
	}
}

func TestImpliedVolatilityOutsideBounds(t *testing.T) {
	p := atTheMoney()
	_, err := ImpliedVolatility(p, 0.5) // below S - Ke^{-rT}
	assert.ErrorIs(t, err, models.ErrDomain)

	_, err = ImpliedVolatility(p, 150)
	assert.ErrorIs(t, err, models.ErrDomain)
}
