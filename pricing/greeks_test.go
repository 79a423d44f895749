package pricing

import (
	"testing"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepSpot(t *testing.T) {
	points, err := SweepSpot(atTheMoney(), 50, 150, 11)
	require.NoError(t, err)
	require.Len(t, points, 11)

	assert.Equal(t, 50.0, points[0].Spot)
	assert.InDelta(t, 150.0, points[10].Spot, 1e-9)
	for i := 1; i < len(points); i++ {
		assert.Greater(t, points[i].Price, points[i-1].Price)
		assert.Greater(t, points[i].Greeks.Delta, points[i-1].Greeks.Delta)
	}

	at100 := points[5]
	assert.InDelta(t, 10.450576, at100.Price, 1e-5)
}

func TestSweepSpotPutPrices(t *testing.T) {
	p := atTheMoney()
	p.OptionType = models.Put
	points, err := SweepSpot(p, 80, 120, 3)
	require.NoError(t, err)
	assert.InDelta(t, 5.573518, points[1].Price, 1e-5)
	assert.Greater(t, points[0].Price, points[2].Price)
}

func TestSweepSpotValidation(t *testing.T) {
	_, err := SweepSpot(atTheMoney(), 50, 150, 1)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = SweepSpot(atTheMoney(), 0, 150, 10)
	assert.ErrorIs(t, err, models.ErrDomain)

	_, err = SweepSpot(atTheMoney(), 150, 50, 10)
	assert.ErrorIs(t, err, models.ErrDomain)
}

func TestShadowGamma(t *testing.T) {
	up, down, err := ShadowGamma(atTheMoney(), 0.01, 0)
	require.NoError(t, err)

	// With vol held fixed both sides approximate gamma.
	assert.InDelta(t, 0.018762, up, 5e-4)
	assert.InDelta(t, 0.018762, down, 5e-4)

	_, _, err = ShadowGamma(atTheMoney(), 0, 0.01)
	assert.ErrorIs(t, err, models.ErrDomain)
}

func TestVomma(t *testing.T) {
	p := atTheMoney()
	p.Strike = 130
	v, err := Vomma(p, 0.01)
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)

	_, err = Vomma(p, 0.2)
	assert.ErrorIs(t, err, models.ErrDomain)
}

func TestSecondOrder(t *testing.T) {
	so, err := SecondOrder(atTheMoney())
	require.NoError(t, err)
	assert.Greater(t, so.ShadowGammaUp, 0.0)
	assert.Greater(t, so.ShadowGammaDown, 0.0)
}
