package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain matches every DomainError via errors.Is.
	ErrDomain = errors.New("pricinglab: invalid mathematical domain")

	// ErrConfiguration matches every ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("pricinglab: invalid configuration")
)

// DomainError reports an input outside the mathematical domain of a pricer,
// e.g. a non-positive volatility or a yield that zeroes a discount denominator.
type DomainError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("pricinglab: domain error: %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// ConfigurationError reports an unsupported identifier or a parameter count
// outside what the selected model accepts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("pricinglab: configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewDomainError builds a *DomainError.
func NewDomainError(field string, value float64, reason string) error {
	return &DomainError{Field: field, Value: value, Reason: reason}
}

// NewConfigurationError builds a *ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
