package probability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	st := summarize(values, []float64{25, 50})

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, values)
	assert.Equal(t, 3.0, st.Mean)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 5.0, st.Max)
	assert.Equal(t, 3.0, st.Median)
	assert.Equal(t, 2.0, st.Percentiles[0].Value)
	assert.Equal(t, 3.0, st.Percentiles[1].Value)
	assert.InDelta(t, 1.5811388, st.StdDev, 1e-7)
}

func TestMedianOfEvenSample(t *testing.T) {
	assert.Equal(t, 2.5, summarize([]float64{4, 1, 3, 2}, nil).Median)
	assert.Equal(t, 15.0, summarize([]float64{20, 10}, nil).Median)
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	cases := map[float64]float64{
		0:    10,
		0.1:  14,
		0.25: 20,
		0.6:  34,
		0.99: 49.6,
		1:    50,
	}
	for p, want := range cases {
		assert.InDelta(t, want, percentileSorted(sorted, p), 1e-12, "p=%v", p)
	}
}

func TestSummarizeSingleValue(t *testing.T) {
	st := summarize([]float64{7}, DefaultPercentiles)
	assert.Zero(t, st.StdDev)
	for _, p := range st.Percentiles {
		assert.Equal(t, 7.0, p.Value)
	}
}

func TestValueAtRiskOnKnownSample(t *testing.T) {
	sorted := make([]float64, 100)
	for i := range sorted {
		sorted[i] = 51 + float64(i) // 51..150
	}
	// The 10th percentile sits at rank 9.9, between 60 and 61.
	v, cv := valueAtRisk(sorted, 100, 0.9)
	assert.InDelta(t, 39.1, v, 1e-9)
	assert.InDelta(t, 44.5, cv, 1e-9)

	allGains := []float64{110, 120, 130}
	v, cv = valueAtRisk(allGains, 100, 0.95)
	assert.InDelta(t, -11, v, 1e-9)
	assert.InDelta(t, -10, cv, 1e-9)
}
