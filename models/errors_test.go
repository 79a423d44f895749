package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	de := NewDomainError("volatility", 0, "must be finite and positive")
	assert.ErrorIs(t, de, ErrDomain)
	assert.NotErrorIs(t, de, ErrConfiguration)
	assert.Equal(t, "pricinglab: domain error: volatility=0: must be finite and positive", de.Error())

	ce := NewConfigurationError("model", "unsupported model %q", "heston")
	assert.ErrorIs(t, ce, ErrConfiguration)
	assert.NotErrorIs(t, ce, ErrDomain)
	assert.Contains(t, ce.Error(), `unsupported model "heston"`)
}

func TestErrorKindsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("pricing bond: %w", NewDomainError("yieldToMaturity", -2, "periodic yield must be above -100%"))
	assert.ErrorIs(t, wrapped, ErrDomain)

	var de *DomainError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "yieldToMaturity", de.Field)
	assert.Equal(t, -2.0, de.Value)
}
