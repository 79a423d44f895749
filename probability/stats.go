package probability

import (
	"math"
	"sort"

	"github.com/bcdannyboy/pricinglab/models"
	"gonum.org/v1/gonum/stat"
)

// DefaultPercentiles is the percentile table reported when none is requested.
var DefaultPercentiles = []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}

type Percentile struct {
	Level float64 `json:"level"`
	Value float64 `json:"value"`
}

// TerminalStats summarises the distribution of terminal values.
type TerminalStats struct {
	Mean        float64      `json:"mean"`
	Median      float64      `json:"median"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	StdDev      float64      `json:"stdDev"`
	Percentiles []Percentile `json:"percentiles"`
}

// summarize sorts values in place.
func summarize(values []float64, levels []float64) TerminalStats {
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}

	table := make([]Percentile, len(levels))
	for i, level := range levels {
		table[i] = Percentile{Level: level, Value: percentileSorted(values, level/100)}
	}

	return TerminalStats{
		Mean:        mean,
		Median:      percentileSorted(values, 0.5),
		Min:         values[0],
		Max:         values[len(values)-1],
		StdDev:      std,
		Percentiles: table,
	}
}

// percentileSorted interpolates linearly between the order statistics
// bracketing rank (n-1)·p, so p = 0.5 is the usual median.
func percentileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func validatePercentiles(levels []float64) error {
	for _, l := range levels {
		if math.IsNaN(l) || l <= 0 || l >= 100 {
			return models.NewDomainError("percentiles", l, "levels must be in (0,100)")
		}
	}
	return nil
}
