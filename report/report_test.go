package report

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/bcdannyboy/pricinglab/pricing"
	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNum(t *testing.T) {
	assert.Equal(t, "10.4506", Num(10.450576, 4))
	assert.Equal(t, "-0.50", Num(-0.499, 2))
	assert.Equal(t, "n/a", Num(math.NaN(), 2))
	assert.Equal(t, "n/a", Num(math.Inf(1), 2))
	assert.Equal(t, "5.00%", Percent(0.05))
}

func TestBlackScholesReport(t *testing.T) {
	p := models.OptionParameters{Spot: 100, Strike: 100, Volatility: 0.2, RiskFreeRate: 0.05, TimeToMaturity: 1}
	res, err := pricing.PriceBlackScholes(p)
	require.NoError(t, err)
	second, err := pricing.SecondOrder(p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, BlackScholes(&buf, p, res, second))
	out := buf.String()
	assert.Contains(t, out, "Greeks (call)")
	assert.Contains(t, out, "10.4506")
	assert.Contains(t, out, "Vomma")
}

func TestBinomialReportOmitsDeepTrees(t *testing.T) {
	p := models.OptionParameters{Spot: 100, Strike: 100, Volatility: 0.2, RiskFreeRate: 0.05, TimeToMaturity: 1}

	shallow, err := pricing.PriceBinomial(p, 2)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Binomial(&buf, p, shallow))
	assert.Contains(t, buf.String(), "Up moves")

	deep, err := pricing.PriceBinomial(p, 50)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, Binomial(&buf, p, deep))
	assert.Contains(t, buf.String(), "tree of 50 steps omitted")
}

func TestBondReportListsCashFlows(t *testing.T) {
	b := models.BondParameters{FaceValue: 1000, CouponRate: 0.05, YieldToMaturity: 0.05, MaturityYears: 2, PaymentsPerYear: 2}
	a, err := pricing.PriceBond(b)
	require.NoError(t, err)
	flows, err := pricing.BondCashFlows(b)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Bond(&buf, b, a, flows))
	out := buf.String()
	assert.Contains(t, out, "1025.00")
	assert.Equal(t, 3, strings.Count(out, "25.00")-strings.Count(out, "1025.00"))
}

func TestSimulationReport(t *testing.T) {
	seed := uint64(3)
	s, err := probability.SimulateMonteCarlo(context.Background(), probability.SimulationParams{
		Model: probability.ModelGBM, Spot: 100, Volatility: 0.2, Horizon: 1,
		NumPaths: 100, NumSteps: 5, Seed: &seed, Strike: 100, RiskFreeRate: 0.05,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Simulation(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "P95")
	assert.Contains(t, out, "Option price")
	assert.NotContains(t, out, "CVaR")
}
