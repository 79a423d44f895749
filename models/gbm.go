package models

import (
	"math"

	"golang.org/x/exp/rand"
)

// Process advances an asset price by one time step of length dt. Sampler
// binds the step to src so every draw of a path comes from one stream.
type Process interface {
	Sampler(dt float64, src rand.Source) func(price float64) float64
}

type GeometricBrownianMotion struct {
	Drift float64 // Annualised expected return
	Sigma float64 // Annualised volatility
}

func NewGeometricBrownianMotion(drift, sigma float64) *GeometricBrownianMotion {
	return &GeometricBrownianMotion{
		Drift: drift,
		Sigma: sigma,
	}
}

func (g *GeometricBrownianMotion) Validate() error {
	if !isFinite(g.Drift) {
		return NewDomainError("drift", g.Drift, "must be finite")
	}
	if !isFinite(g.Sigma) || g.Sigma < 0 {
		return NewDomainError("volatility", g.Sigma, "must be finite and non-negative")
	}
	return nil
}

func (g *GeometricBrownianMotion) Sampler(dt float64, src rand.Source) func(float64) float64 {
	rng := rand.New(src)
	drift := (g.Drift - 0.5*g.Sigma*g.Sigma) * dt
	vol := g.Sigma * math.Sqrt(dt)

	return func(price float64) float64 {
		return price * math.Exp(drift+vol*rng.NormFloat64())
	}
}

// SimulatePrice returns the terminal price of one path.
func (g *GeometricBrownianMotion) SimulatePrice(s0, t float64, steps int, src rand.Source) float64 {
	return simulateTerminal(g, s0, t, steps, src)
}

func simulateTerminal(p Process, s0, t float64, steps int, src rand.Source) float64 {
	step := p.Sampler(t/float64(steps), src)
	price := s0
	for i := 0; i < steps; i++ {
		price = step(price)
	}
	return price
}
