package models

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	jumpThresholdSigmas = 3
	maxJumpsPerStep     = 64
)

type MertonJumpDiffusion struct {
	Drift  float64 // Annualised expected return
	Sigma  float64 // Diffusion volatility
	Lambda float64 // Jump intensity (jumps per year)
	Mu     float64 // Mean log jump size
	Delta  float64 // Log jump size volatility
}

func NewMertonJumpDiffusion(drift, sigma, lambda, mu, delta float64) *MertonJumpDiffusion {
	return &MertonJumpDiffusion{
		Drift:  drift,
		Sigma:  sigma,
		Lambda: lambda,
		Mu:     mu,
		Delta:  delta,
	}
}

func (m *MertonJumpDiffusion) Validate() error {
	if !isFinite(m.Drift) {
		return NewDomainError("drift", m.Drift, "must be finite")
	}
	if !isFinite(m.Sigma) || m.Sigma < 0 {
		return NewDomainError("volatility", m.Sigma, "must be finite and non-negative")
	}
	if !isFinite(m.Lambda) || m.Lambda < 0 {
		return NewDomainError("jump.lambda", m.Lambda, "must be finite and non-negative")
	}
	if !isFinite(m.Mu) {
		return NewDomainError("jump.mu", m.Mu, "must be finite")
	}
	if !isFinite(m.Delta) || m.Delta < 0 {
		return NewDomainError("jump.delta", m.Delta, "must be finite and non-negative")
	}
	return nil
}

// Compensator is the drift correction λ(E[e^J]-1) that keeps E[S_T] = S_0·e^(Drift·T).
func (m *MertonJumpDiffusion) Compensator() float64 {
	return m.Lambda * (math.Exp(m.Mu+0.5*m.Delta*m.Delta) - 1)
}

// Sampler draws the jump count per step by inverting a Poisson(λ·dt) CDF
// tabulated once. When λ·dt is too large for the table to cover the tail,
// counts come from distuv.Poisson instead.
func (m *MertonJumpDiffusion) Sampler(dt float64, src rand.Source) func(float64) float64 {
	rng := rand.New(src)
	drift := (m.Drift - m.Compensator() - 0.5*m.Sigma*m.Sigma) * dt
	vol := m.Sigma * math.Sqrt(dt)
	jumps := jumpCounter(m.Lambda*dt, rng, src)

	return func(price float64) float64 {
		x := drift + vol*rng.NormFloat64()
		if n := jumps(); n > 0 {
			k := float64(n)
			x += k*m.Mu + math.Sqrt(k)*m.Delta*rng.NormFloat64()
		}
		return price * math.Exp(x)
	}
}

// SimulatePrice returns the terminal price of one path.
func (m *MertonJumpDiffusion) SimulatePrice(s0, t float64, steps int, src rand.Source) float64 {
	return simulateTerminal(m, s0, t, steps, src)
}

func jumpCounter(lambda float64, rng *rand.Rand, src rand.Source) func() int {
	cdf, complete := poissonTable(lambda)
	if complete {
		return func() int { return drawCount(cdf, rng.Float64()) }
	}
	dist := distuv.Poisson{Lambda: lambda, Src: src}
	return func() int { return int(dist.Rand()) }
}

// poissonTable tabulates the Poisson CDF up to maxJumpsPerStep counts. It
// reports false when the mass left beyond the table exceeds 1e-12.
func poissonTable(lambda float64) ([]float64, bool) {
	if lambda <= 0 {
		return nil, true
	}
	dist := distuv.Poisson{Lambda: lambda}
	cdf := make([]float64, 0, 8)
	for k := 0; k < maxJumpsPerStep; k++ {
		c := dist.CDF(float64(k))
		cdf = append(cdf, c)
		if c >= 1-1e-12 {
			return cdf, true
		}
	}
	return nil, false
}

func drawCount(cdf []float64, u float64) int {
	for k, c := range cdf {
		if u < c {
			return k
		}
	}
	return len(cdf)
}

// FitMertonJumps estimates jump-diffusion parameters from a series of closes
// sampled dt years apart. Log returns further than three standard deviations
// from the mean are treated as jumps, the rest as diffusion.
func FitMertonJumps(closes []float64, dt float64) (*MertonJumpDiffusion, error) {
	if len(closes) < 3 {
		return nil, NewConfigurationError("closes", "need at least 3 prices, got %d", len(closes))
	}
	if err := positive("dt", dt); err != nil {
		return nil, err
	}
	returns, err := logReturns(closes)
	if err != nil {
		return nil, err
	}

	mean, std := stat.MeanStdDev(returns, nil)
	threshold := jumpThresholdSigmas * std

	var jumps, diffusion []float64
	for _, r := range returns {
		if std > 0 && math.Abs(r-mean) > threshold {
			jumps = append(jumps, r)
		} else {
			diffusion = append(diffusion, r)
		}
	}

	m := &MertonJumpDiffusion{
		Lambda: float64(len(jumps)) / (float64(len(returns)) * dt),
	}
	m.Mu, m.Delta = calibrateJumpSizes(jumps)

	if len(diffusion) > 1 {
		_, dstd := stat.MeanStdDev(diffusion, nil)
		m.Sigma = dstd / math.Sqrt(dt)
	}
	m.Drift = mean/dt + 0.5*m.Sigma*m.Sigma + m.Compensator()
	return m, nil
}

func calibrateJumpSizes(jumps []float64) (float64, float64) {
	switch len(jumps) {
	case 0:
		return 0, 0
	case 1:
		return jumps[0], 0
	}
	return stat.MeanStdDev(jumps, nil)
}

func logReturns(closes []float64) ([]float64, error) {
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return nil, NewDomainError("close", math.Min(closes[i-1], closes[i]), "prices must be positive")
		}
		returns[i-1] = math.Log(closes[i] / closes[i-1])
	}
	return returns, nil
}
