package models

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const TradingDaysPerYear = 252

// Bar is one daily OHLC observation.
type Bar struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type VolatilityEstimate struct {
	CloseToClose   float64 `json:"closeToClose"`
	Parkinson      float64 `json:"parkinson"`
	GarmanKlass    float64 `json:"garmanKlass"`
	RogersSatchell float64 `json:"rogersSatchell"`
	YangZhang      float64 `json:"yangZhang"`
	Observations   int     `json:"observations"`
}

// EstimateVolatility annualises five estimators over the last `days` bars
// (all bars when days <= 0 or days exceeds the history).
func EstimateVolatility(bars []Bar, days int) (VolatilityEstimate, error) {
	if days > 0 && days < len(bars) {
		bars = bars[len(bars)-days:]
	}
	if len(bars) < 2 {
		return VolatilityEstimate{}, NewConfigurationError("bars", "need at least 2 bars, got %d", len(bars))
	}
	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return VolatilityEstimate{}, NewDomainError("bar", math.Min(math.Min(b.Open, b.Close), b.Low), "OHLC prices must be positive")
		}
		if b.High < b.Low {
			return VolatilityEstimate{}, NewDomainError("bar.high", b.High, "high below low on "+b.Date)
		}
	}

	return VolatilityEstimate{
		CloseToClose:   closeToCloseVolatility(bars),
		Parkinson:      parkinsonVolatility(bars),
		GarmanKlass:    garmanKlassVolatility(bars),
		RogersSatchell: math.Sqrt(math.Max(rogersSatchellVariance(bars), 0) * TradingDaysPerYear),
		YangZhang:      yangZhangVolatility(bars),
		Observations:   len(bars),
	}, nil
}

// Closes extracts the closing prices.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func closeToCloseVolatility(bars []Bar) float64 {
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
}

func parkinsonVolatility(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return math.Sqrt(sum / (4 * float64(len(bars)) * math.Ln2) * TradingDaysPerYear)
}

func garmanKlassVolatility(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return math.Sqrt(math.Max(sum, 0) / float64(len(bars)) * TradingDaysPerYear)
}

// rogersSatchellVariance is the daily drift-independent range variance.
func rogersSatchellVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hc, ho := math.Log(b.High/b.Close), math.Log(b.High/b.Open)
		lc, lo := math.Log(b.Low/b.Close), math.Log(b.Low/b.Open)
		sum += hc*ho + lc*lo
	}
	return sum / float64(len(bars))
}

// yangZhangVolatility blends overnight, open-to-close and Rogers-Satchell
// variances using the minimum-variance weight k.
func yangZhangVolatility(bars []Bar) float64 {
	n := float64(len(bars))
	overnight := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		overnight[i-1] = math.Log(bars[i].Open / bars[i-1].Close)
	}
	intraday := make([]float64, len(bars))
	for i, b := range bars {
		intraday[i] = math.Log(b.Close / b.Open)
	}

	k := 0.34 / (1.34 + (n+1)/(n-1))
	v := sampleVariance(overnight) + k*sampleVariance(intraday) + (1-k)*rogersSatchellVariance(bars)
	return math.Sqrt(math.Max(v, 0) * TradingDaysPerYear)
}

func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}
