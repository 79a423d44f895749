package probability

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const (
	maxAssets       = 64
	weightTolerance = 1e-6
)

// Portfolio describes the correlated assets of a portfolio-var simulation.
// Volatilities and ExpectedReturns are annualised; ExpectedReturns may be
// empty for zero drift.
type Portfolio struct {
	Value           float64     `json:"value"`
	Weights         []float64   `json:"weights"`
	ExpectedReturns []float64   `json:"expectedReturns,omitempty"`
	Volatilities    []float64   `json:"volatilities"`
	Correlation     [][]float64 `json:"correlation"`
	Confidence      float64     `json:"confidence"`
}

// portfolioModel is a validated portfolio with its Cholesky factor unpacked
// into a dense row-major lower triangle.
type portfolioModel struct {
	value   float64
	weights []float64
	drift   []float64 // per-step (μ-σ²/2)·dt
	chol    [][]float64
	sqrtDt  float64
}

func (p Portfolio) Validate() error {
	n := len(p.Volatilities)
	if n == 0 || n > maxAssets {
		return models.NewConfigurationError("portfolio.volatilities", "need between 1 and %d assets, got %d", maxAssets, n)
	}
	if len(p.Weights) != n {
		return models.NewConfigurationError("portfolio.weights", "got %d weights for %d assets", len(p.Weights), n)
	}
	if len(p.ExpectedReturns) != 0 && len(p.ExpectedReturns) != n {
		return models.NewConfigurationError("portfolio.expectedReturns", "got %d expected returns for %d assets", len(p.ExpectedReturns), n)
	}
	if len(p.Correlation) != n {
		return models.NewConfigurationError("portfolio.correlation", "need a %dx%d matrix, got %d rows", n, n, len(p.Correlation))
	}
	for i, row := range p.Correlation {
		if len(row) != n {
			return models.NewConfigurationError("portfolio.correlation", "row %d has %d columns, need %d", i, len(row), n)
		}
	}
	if math.IsNaN(p.Value) || p.Value <= 0 || math.IsInf(p.Value, 0) {
		return models.NewDomainError("portfolio.value", p.Value, "must be finite and positive")
	}
	if math.IsNaN(p.Confidence) || p.Confidence <= 0 || p.Confidence >= 1 {
		return models.NewDomainError("portfolio.confidence", p.Confidence, "must be in (0,1)")
	}

	sum := 0.0
	for _, w := range p.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return models.NewDomainError("portfolio.weights", w, "must be finite")
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return models.NewConfigurationError("portfolio.weights", "weights must sum to 1, got %g", sum)
	}
	for _, v := range p.Volatilities {
		if math.IsNaN(v) || v < 0 || math.IsInf(v, 0) {
			return models.NewDomainError("portfolio.volatilities", v, "must be finite and non-negative")
		}
	}
	for _, mu := range p.ExpectedReturns {
		if math.IsNaN(mu) || math.IsInf(mu, 0) {
			return models.NewDomainError("portfolio.expectedReturns", mu, "must be finite")
		}
	}
	for i := 0; i < n; i++ {
		if p.Correlation[i][i] != 1 {
			return models.NewDomainError("portfolio.correlation", p.Correlation[i][i], "diagonal must be 1")
		}
		for j := 0; j < n; j++ {
			rho := p.Correlation[i][j]
			if math.IsNaN(rho) || math.Abs(rho) > 1 {
				return models.NewDomainError("portfolio.correlation", rho, "entries must be in [-1,1]")
			}
			if math.Abs(rho-p.Correlation[j][i]) > 1e-12 {
				return models.NewDomainError("portfolio.correlation", rho, "matrix must be symmetric")
			}
		}
	}
	return nil
}

func newPortfolioModel(p Portfolio, dt float64) (*portfolioModel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := len(p.Volatilities)

	// Zero-volatility assets make the covariance singular; factor the
	// correlation instead and scale rows by σ.
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr.SetSym(i, j, p.Correlation[i][j])
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(corr); !ok {
		return nil, models.NewDomainError("portfolio.correlation", 0, "matrix is not positive definite")
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	m := &portfolioModel{
		value:   p.Value,
		weights: append([]float64(nil), p.Weights...),
		drift:   make([]float64, n),
		chol:    make([][]float64, n),
		sqrtDt:  math.Sqrt(dt),
	}
	for i := 0; i < n; i++ {
		mu := 0.0
		if len(p.ExpectedReturns) > 0 {
			mu = p.ExpectedReturns[i]
		}
		sigma := p.Volatilities[i]
		m.drift[i] = (mu - 0.5*sigma*sigma) * dt
		row := make([]float64, i+1)
		for j := 0; j <= i; j++ {
			row[j] = sigma * lower.At(i, j)
		}
		m.chol[i] = row
	}
	return m, nil
}

// scratch holds per-batch buffers so a path never allocates.
type portfolioScratch struct {
	z   []float64
	log []float64
}

func (m *portfolioModel) newScratch() *portfolioScratch {
	n := len(m.weights)
	return &portfolioScratch{z: make([]float64, n), log: make([]float64, n)}
}

// simulate runs one path and writes the portfolio value after each step into
// path (len steps+1) when path is non-nil. It returns the terminal value.
func (m *portfolioModel) simulate(steps int, rng *rand.Rand, s *portfolioScratch, path []float64) float64 {
	for i := range s.log {
		s.log[i] = 0
	}
	if path != nil {
		path[0] = m.value
	}
	var v float64
	for k := 1; k <= steps; k++ {
		for i := range s.z {
			s.z[i] = rng.NormFloat64()
		}
		for i, row := range m.chol {
			x := 0.0
			for j, l := range row {
				x += l * s.z[j]
			}
			s.log[i] += m.drift[i] + m.sqrtDt*x
		}
		if path != nil || k == steps {
			v = m.valueOf(s.log)
			if path != nil {
				path[k] = v
			}
		}
	}
	return v
}

func (m *portfolioModel) valueOf(logReturns []float64) float64 {
	v := 0.0
	for i, w := range m.weights {
		v += w * math.Exp(logReturns[i])
	}
	return m.value * v
}

// valueAtRisk returns VaR and CVaR (both positive for losses) from terminal
// values sorted ascending.
func valueAtRisk(sortedTerminal []float64, initial, confidence float64) (float64, float64) {
	threshold := percentileSorted(sortedTerminal, 1-confidence) - initial
	varLoss := -threshold

	sum, count := 0.0, 0
	for _, v := range sortedTerminal {
		pnl := v - initial
		if pnl > threshold {
			break
		}
		sum += pnl
		count++
	}
	if count == 0 {
		return varLoss, varLoss
	}
	return varLoss, -sum / float64(count)
}
