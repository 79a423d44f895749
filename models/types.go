package models

import (
	"math"
	"strings"
)

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case. An empty string means call.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", NewConfigurationError("optionType", "unsupported option type %q", s)
	}
}

type OptionParameters struct {
	Spot           float64    `json:"spot"`
	Strike         float64    `json:"strike"`
	Volatility     float64    `json:"volatility"`
	RiskFreeRate   float64    `json:"riskFreeRate"`
	TimeToMaturity float64    `json:"timeToMaturity"`
	OptionType     OptionType `json:"optionType"`
}

// Validate rejects inputs for which d1 is undefined. Zero volatility and zero
// time are errors rather than limiting cases.
func (p OptionParameters) Validate() error {
	if err := positive("spot", p.Spot); err != nil {
		return err
	}
	if err := positive("strike", p.Strike); err != nil {
		return err
	}
	if err := positive("volatility", p.Volatility); err != nil {
		return err
	}
	if err := positive("timeToMaturity", p.TimeToMaturity); err != nil {
		return err
	}
	if !isFinite(p.RiskFreeRate) {
		return NewDomainError("riskFreeRate", p.RiskFreeRate, "must be finite")
	}
	if _, err := ParseOptionType(string(p.OptionType)); err != nil {
		return err
	}
	return nil
}

// IsCall reports whether the parameters describe a call. The zero value is a call.
func (p OptionParameters) IsCall() bool {
	t, _ := ParseOptionType(string(p.OptionType))
	return t != Put
}

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

type PricingResult struct {
	CallPrice float64 `json:"callPrice"`
	PutPrice  float64 `json:"putPrice"`
	Greeks    Greeks  `json:"greeks"`
}

// LatticeNode is node (Step, UpMoves) of a recombining binomial tree.
type LatticeNode struct {
	Step            int     `json:"step"`
	UpMoves         int     `json:"upMoves"`
	UnderlyingPrice float64 `json:"underlyingPrice"`
	OptionValue     float64 `json:"optionValue"`
}

type BinomialResult struct {
	Price       float64         `json:"price"`
	Steps       int             `json:"steps"`
	Up          float64         `json:"up"`
	Down        float64         `json:"down"`
	Probability float64         `json:"probability"`
	Tree        [][]LatticeNode `json:"tree"`
}

// SimulationPath holds one Monte Carlo trial; Prices[0] is the initial price.
type SimulationPath struct {
	Index  int       `json:"index"`
	Prices []float64 `json:"prices"`
}

type BondParameters struct {
	FaceValue       float64 `json:"faceValue"`
	CouponRate      float64 `json:"couponRate"`
	YieldToMaturity float64 `json:"yieldToMaturity"`
	MaturityYears   float64 `json:"maturityYears"`
	PaymentsPerYear int     `json:"paymentsPerYear"`
}

// Periods returns the number of coupon periods, which must be a whole number.
func (b BondParameters) Periods() (int, error) {
	n := b.MaturityYears * float64(b.PaymentsPerYear)
	rounded := math.Round(n)
	if math.Abs(n-rounded) > 1e-9 {
		return 0, NewDomainError("maturityYears", b.MaturityYears, "maturity must be a whole number of coupon periods")
	}
	return int(rounded), nil
}

func (b BondParameters) Validate() error {
	if err := positive("faceValue", b.FaceValue); err != nil {
		return err
	}
	if !isFinite(b.CouponRate) || b.CouponRate < 0 {
		return NewDomainError("couponRate", b.CouponRate, "must be finite and non-negative")
	}
	if err := positive("maturityYears", b.MaturityYears); err != nil {
		return err
	}
	if b.PaymentsPerYear <= 0 {
		return NewDomainError("paymentsPerYear", float64(b.PaymentsPerYear), "must be positive")
	}
	if !isFinite(b.YieldToMaturity) {
		return NewDomainError("yieldToMaturity", b.YieldToMaturity, "must be finite")
	}
	if b.YieldToMaturity/float64(b.PaymentsPerYear) <= -1 {
		return NewDomainError("yieldToMaturity", b.YieldToMaturity, "periodic yield must be above -100%")
	}
	if _, err := b.Periods(); err != nil {
		return err
	}
	return nil
}

type BondAnalytics struct {
	Price            float64 `json:"price"`
	MacaulayDuration float64 `json:"macaulayDuration"`
	ModifiedDuration float64 `json:"modifiedDuration"`
	Convexity        float64 `json:"convexity"`
}

func positive(field string, v float64) error {
	if !isFinite(v) || v <= 0 {
		return NewDomainError(field, v, "must be finite and positive")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
