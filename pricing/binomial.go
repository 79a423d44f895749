package pricing

import (
	"math"

	"github.com/bcdannyboy/pricinglab/models"
)

// MaxBinomialSteps bounds the lattice depth; the tree holds (N+1)(N+2)/2 nodes.
const MaxBinomialSteps = 500

// PriceBinomial prices a European option on a Cox-Ross-Rubinstein lattice and
// returns every node for visualisation.
func PriceBinomial(params models.OptionParameters, steps int) (models.BinomialResult, error) {
	if steps <= 0 {
		return models.BinomialResult{}, models.NewDomainError("steps", float64(steps), "must be positive")
	}
	if steps > MaxBinomialSteps {
		return models.BinomialResult{}, models.NewConfigurationError("steps", "at most %d steps are supported, got %d", MaxBinomialSteps, steps)
	}
	if err := params.Validate(); err != nil {
		return models.BinomialResult{}, err
	}

	S, K := params.Spot, params.Strike
	dt := params.TimeToMaturity / float64(steps)
	u := math.Exp(params.Volatility * math.Sqrt(dt))
	d := 1 / u
	p := (math.Exp(params.RiskFreeRate*dt) - d) / (u - d)
	if p < 0 || p > 1 {
		return models.BinomialResult{}, models.NewDomainError("probability", p, "risk-neutral probability outside [0,1]; increase steps")
	}
	disc := math.Exp(-params.RiskFreeRate * dt)
	isCall := params.IsCall()

	tree := make([][]models.LatticeNode, steps+1)
	for i := 0; i <= steps; i++ {
		row := make([]models.LatticeNode, i+1)
		for j := 0; j <= i; j++ {
			row[j] = models.LatticeNode{
				Step:            i,
				UpMoves:         j,
				UnderlyingPrice: S * math.Pow(u, float64(j)) * math.Pow(d, float64(i-j)),
			}
		}
		tree[i] = row
	}

	for j := range tree[steps] {
		tree[steps][j].OptionValue = payoff(tree[steps][j].UnderlyingPrice, K, isCall)
	}
	for i := steps - 1; i >= 0; i-- {
		next := tree[i+1]
		for j := range tree[i] {
			tree[i][j].OptionValue = disc * (p*next[j+1].OptionValue + (1-p)*next[j].OptionValue)
		}
	}

	return models.BinomialResult{
		Price:       tree[0][0].OptionValue,
		Steps:       steps,
		Up:          u,
		Down:        d,
		Probability: p,
		Tree:        tree,
	}, nil
}

func payoff(spot, strike float64, isCall bool) float64 {
	if isCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}
