package pricing

import (
	"math"
	"testing"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNelsonSiegelShape(t *testing.T) {
	ns := NelsonSiegel{Beta0: 0.04, Beta1: -0.02, Beta2: 0.01, Tau: 2}

	assert.InDelta(t, 0.02, ns.Yield(0), 1e-15)
	assert.InDelta(t, 0.02, ns.Yield(1e-9), 1e-6)
	assert.InDelta(t, 0.04, ns.Yield(1000), 1e-4)
	assert.InDelta(t, math.Exp(-ns.Yield(5)*5), ns.DiscountFactor(5), 1e-15)
	assert.Equal(t, 1.0, ns.DiscountFactor(0))
}

func TestFitNelsonSiegelRecoversCurve(t *testing.T) {
	truth := NelsonSiegel{Beta0: 0.045, Beta1: -0.02, Beta2: 0.015, Tau: 1.8}
	maturities := []float64{0.25, 0.5, 1, 2, 3, 5, 7, 10, 20, 30}
	yields := make([]float64, len(maturities))
	for i, m := range maturities {
		yields[i] = truth.Yield(m)
	}

	fit, err := FitNelsonSiegel(maturities, yields)
	require.NoError(t, err)

	assert.Less(t, fit.RMSEBps, 1.0)
	require.Len(t, fit.Fitted, len(maturities))
	for i := range maturities {
		assert.InDelta(t, yields[i], fit.Fitted[i], 2e-4)
	}
	assert.Positive(t, fit.Curve.Tau)
	assert.Positive(t, fit.Evaluated)
}

func TestFitNelsonSiegelValidation(t *testing.T) {
	_, err := FitNelsonSiegel([]float64{1, 2, 3, 5}, []float64{0.01, 0.02, 0.03})
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = FitNelsonSiegel([]float64{1, 2, 3}, []float64{0.01, 0.02, 0.03})
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = FitNelsonSiegel([]float64{0, 2, 3, 5}, []float64{0.01, 0.02, 0.03, 0.04})
	assert.ErrorIs(t, err, models.ErrDomain)

	_, err = FitNelsonSiegel([]float64{1, 2, 3, 5}, []float64{0.01, math.NaN(), 0.03, 0.04})
	assert.ErrorIs(t, err, models.ErrDomain)
}
