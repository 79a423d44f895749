package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionType(t *testing.T) {
	cases := map[string]OptionType{
		"":     Call,
		"call": Call,
		"CALL": Call,
		" c ":  Call,
		"put":  Put,
		"Put":  Put,
		"p":    Put,
	}
	for in, want := range cases {
		got, err := ParseOptionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOptionType("straddle")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOptionParametersIsCall(t *testing.T) {
	assert.True(t, OptionParameters{}.IsCall())
	assert.True(t, OptionParameters{OptionType: "CALL"}.IsCall())
	assert.False(t, OptionParameters{OptionType: "PUT"}.IsCall())
	assert.False(t, OptionParameters{OptionType: "p"}.IsCall())
}

func TestOptionParametersValidate(t *testing.T) {
	ok := OptionParameters{Spot: 100, Strike: 100, Volatility: 0.2, RiskFreeRate: -0.01, TimeToMaturity: 1}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.TimeToMaturity = 0
	var de *DomainError
	require.ErrorAs(t, bad.Validate(), &de)
	assert.Equal(t, "timeToMaturity", de.Field)

	bad = ok
	bad.RiskFreeRate = math.NaN()
	assert.ErrorIs(t, bad.Validate(), ErrDomain)

	bad = ok
	bad.OptionType = "binary"
	assert.ErrorIs(t, bad.Validate(), ErrConfiguration)
}

func TestBondPeriods(t *testing.T) {
	b := BondParameters{FaceValue: 1000, CouponRate: 0.05, YieldToMaturity: 0.05, MaturityYears: 2.5, PaymentsPerYear: 2}
	n, err := b.Periods()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, b.Validate())

	b.PaymentsPerYear = 1
	_, err = b.Periods()
	assert.ErrorIs(t, err, ErrDomain)

	b.PaymentsPerYear = 12
	b.MaturityYears = 0.25
	n, err = b.Periods()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBondValidate(t *testing.T) {
	b := BondParameters{FaceValue: 1000, CouponRate: 0, YieldToMaturity: -0.5, MaturityYears: 1, PaymentsPerYear: 1}
	require.NoError(t, b.Validate())

	b.YieldToMaturity = -1
	assert.ErrorIs(t, b.Validate(), ErrDomain)

	b.YieldToMaturity = 0.05
	b.CouponRate = math.Inf(1)
	assert.ErrorIs(t, b.Validate(), ErrDomain)
}
