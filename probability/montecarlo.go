package probability

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/bcdannyboy/pricinglab/models"
	"golang.org/x/exp/rand"
)

const (
	MaxPaths        = 1_000_000
	MaxSteps        = 10_000
	MaxPathSteps    = 200_000_000
	MaxSamplePaths  = 100
	DefaultBatch    = 1_000
	seedMixConstant = 0x9e3779b97f4a7c15
)

type Model string

const (
	ModelGBM           Model = "gbm"
	ModelJumpDiffusion Model = "jump-diffusion"
	ModelPortfolioVaR  Model = "portfolio-var"
)

func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case "", ModelGBM:
		return ModelGBM, nil
	case ModelJumpDiffusion, "merton":
		return ModelJumpDiffusion, nil
	case ModelPortfolioVaR, "var":
		return ModelPortfolioVaR, nil
	}
	return "", models.NewConfigurationError("model", "unknown model %q", s)
}

// JumpParams are the Merton jump parameters: intensity per year and the mean
// and volatility of the log jump size.
type JumpParams struct {
	Lambda float64 `json:"lambda"`
	Mu     float64 `json:"mu"`
	Delta  float64 `json:"delta"`
}

type SimulationParams struct {
	Model      Model   `json:"model"`
	Spot       float64 `json:"spot"`
	Drift      float64 `json:"drift"`
	Volatility float64 `json:"volatility"`
	Horizon    float64 `json:"horizon"` // years
	NumPaths   int     `json:"numPaths"`
	NumSteps   int     `json:"numSteps"`
	Seed       *uint64 `json:"seed,omitempty"`

	// A positive Strike prices a European option on the simulated terminal
	// prices, discounted at RiskFreeRate.
	Strike       float64           `json:"strike,omitempty"`
	OptionType   models.OptionType `json:"optionType,omitempty"`
	RiskFreeRate float64           `json:"riskFreeRate,omitempty"`

	Jump        *JumpParams `json:"jump,omitempty"`
	Portfolio   *Portfolio  `json:"portfolio,omitempty"`
	Percentiles []float64   `json:"percentiles,omitempty"`
	SamplePaths int         `json:"samplePaths,omitempty"`
}

type SimulationSummary struct {
	Model    Model  `json:"model"`
	NumPaths int    `json:"numPaths"`
	NumSteps int    `json:"numSteps"`
	Seed     uint64 `json:"seed"`
	TerminalStats

	OptionPrice    *float64 `json:"optionPrice,omitempty"`
	StdError       *float64 `json:"stdError,omitempty"`
	ValueAtRisk    *float64 `json:"valueAtRisk,omitempty"`
	ConditionalVaR *float64 `json:"conditionalVaR,omitempty"`

	Paths []models.SimulationPath `json:"paths,omitempty"`
}

// Engine runs simulations on a bounded pool of workers.
type Engine struct {
	workers   int
	batchSize int
	progress  func(paths int)
	logger    *slog.Logger
}

type Option func(*Engine)

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBatchSize sets the number of paths per batch. Results depend on the
// batch size, not on the worker count.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithProgress registers a hook called with the number of paths in each
// finished batch. It is called from worker goroutines.
func WithProgress(fn func(paths int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		workers:   runtime.GOMAXPROCS(0),
		batchSize: DefaultBatch,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers reports the size of the worker pool.
func (e *Engine) Workers() int {
	return e.workers
}

// SimulateMonteCarlo runs params on an engine with default settings.
func SimulateMonteCarlo(ctx context.Context, params SimulationParams) (SimulationSummary, error) {
	return NewEngine().Simulate(ctx, params)
}

// pathRunner simulates one path into terminal and, when path is non-nil,
// records every step. Each batch gets its own runner.
type pathRunner func(path []float64) float64

type plan struct {
	params   SimulationParams
	levels   []float64
	seed     uint64
	initial  float64
	isCall   bool
	newBatch func(src rand.Source) pathRunner
}

func (e *Engine) Simulate(ctx context.Context, params SimulationParams) (SimulationSummary, error) {
	pl, err := newPlan(params)
	if err != nil {
		return SimulationSummary{}, err
	}
	p := pl.params

	terminals := make([]float64, p.NumPaths)
	samples := make([]models.SimulationPath, min(p.SamplePaths, p.NumPaths))

	batches := (p.NumPaths + e.batchSize - 1) / e.batchSize
	if e.logger != nil {
		e.logger.Debug("simulation started",
			"model", p.Model, "paths", p.NumPaths, "steps", p.NumSteps,
			"batches", batches, "workers", e.workers, "seed", pl.seed)
	}
	started := time.Now()

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.workers)

dispatch:
	for b := 0; b < batches; b++ {
		select {
		case <-ctx.Done():
			break dispatch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(batch int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			if ctx.Err() != nil {
				return
			}

			start := batch * e.batchSize
			end := min(start+e.batchSize, p.NumPaths)
			run := pl.newBatch(rand.NewSource(batchSeed(pl.seed, batch)))
			for i := start; i < end; i++ {
				var path []float64
				if i < len(samples) {
					path = make([]float64, p.NumSteps+1)
					samples[i] = models.SimulationPath{Index: i, Prices: path}
				}
				terminals[i] = run(path)
			}

			if e.progress != nil {
				e.progress(end - start)
			}
			if e.logger != nil {
				e.logger.Debug("batch finished", "batch", batch, "paths", end-start)
			}
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return SimulationSummary{}, err
	}

	summary := SimulationSummary{
		Model:    p.Model,
		NumPaths: p.NumPaths,
		NumSteps: p.NumSteps,
		Seed:     pl.seed,
		Paths:    samples,
	}
	if p.Strike > 0 {
		price, stdErr := pl.optionValue(terminals)
		summary.OptionPrice, summary.StdError = &price, &stdErr
	}
	summary.TerminalStats = summarize(terminals, pl.levels)
	if p.Model == ModelPortfolioVaR {
		v, cv := valueAtRisk(terminals, pl.initial, p.Portfolio.Confidence)
		summary.ValueAtRisk, summary.ConditionalVaR = &v, &cv
	}

	if e.logger != nil {
		e.logger.Debug("simulation finished", "model", p.Model, "elapsed", time.Since(started))
	}
	return summary, nil
}

func newPlan(params SimulationParams) (*plan, error) {
	model, err := ParseModel(string(params.Model))
	if err != nil {
		return nil, err
	}
	params.Model = model

	if err := validateCounts(params.NumPaths, params.NumSteps); err != nil {
		return nil, err
	}
	if math.IsNaN(params.Horizon) || params.Horizon <= 0 || math.IsInf(params.Horizon, 0) {
		return nil, models.NewDomainError("horizon", params.Horizon, "must be finite and positive")
	}
	if params.SamplePaths < 0 || params.SamplePaths > MaxSamplePaths {
		return nil, models.NewConfigurationError("samplePaths", "must be between 0 and %d, got %d", MaxSamplePaths, params.SamplePaths)
	}

	pl := &plan{params: params, levels: params.Percentiles}
	if len(pl.levels) == 0 {
		pl.levels = DefaultPercentiles
	}
	if err := validatePercentiles(pl.levels); err != nil {
		return nil, err
	}

	if params.Seed != nil {
		pl.seed = *params.Seed
	} else {
		pl.seed = uint64(time.Now().UnixNano())
	}

	steps := params.NumSteps
	dt := params.Horizon / float64(steps)

	switch model {
	case ModelPortfolioVaR:
		if params.Portfolio == nil {
			return nil, models.NewConfigurationError("portfolio", "required for model %q", model)
		}
		if params.Strike > 0 {
			return nil, models.NewConfigurationError("strike", "option pricing is not available for model %q", model)
		}
		pm, err := newPortfolioModel(*params.Portfolio, dt)
		if err != nil {
			return nil, err
		}
		pl.initial = pm.value
		pl.newBatch = func(src rand.Source) pathRunner {
			rng := rand.New(src)
			scratch := pm.newScratch()
			return func(path []float64) float64 {
				return pm.simulate(steps, rng, scratch, path)
			}
		}
		return pl, nil

	case ModelJumpDiffusion:
		if params.Jump == nil {
			return nil, models.NewConfigurationError("jump", "required for model %q", model)
		}
		proc := models.NewMertonJumpDiffusion(params.Drift, params.Volatility, params.Jump.Lambda, params.Jump.Mu, params.Jump.Delta)
		if err := proc.Validate(); err != nil {
			return nil, err
		}
		pl.newBatch = processRunner(proc, params.Spot, dt, steps)

	default:
		proc := models.NewGeometricBrownianMotion(params.Drift, params.Volatility)
		if err := proc.Validate(); err != nil {
			return nil, err
		}
		pl.newBatch = processRunner(proc, params.Spot, dt, steps)
	}

	if math.IsNaN(params.Spot) || params.Spot <= 0 || math.IsInf(params.Spot, 0) {
		return nil, models.NewDomainError("spot", params.Spot, "must be finite and positive")
	}
	pl.initial = params.Spot

	if params.Strike < 0 || math.IsNaN(params.Strike) || math.IsInf(params.Strike, 0) {
		return nil, models.NewDomainError("strike", params.Strike, "must be finite and non-negative")
	}
	if params.Strike > 0 {
		ot, err := models.ParseOptionType(string(params.OptionType))
		if err != nil {
			return nil, err
		}
		pl.isCall = ot == models.Call
		if math.IsNaN(params.RiskFreeRate) || math.IsInf(params.RiskFreeRate, 0) {
			return nil, models.NewDomainError("riskFreeRate", params.RiskFreeRate, "must be finite")
		}
	}
	return pl, nil
}

func validateCounts(paths, steps int) error {
	if paths <= 0 {
		return models.NewDomainError("numPaths", float64(paths), "must be positive")
	}
	if steps <= 0 {
		return models.NewDomainError("numSteps", float64(steps), "must be positive")
	}
	if paths > MaxPaths {
		return models.NewConfigurationError("numPaths", "at most %d paths are supported, got %d", MaxPaths, paths)
	}
	if steps > MaxSteps {
		return models.NewConfigurationError("numSteps", "at most %d steps are supported, got %d", MaxSteps, steps)
	}
	if int64(paths)*int64(steps) > MaxPathSteps {
		return models.NewConfigurationError("numPaths", "paths x steps must not exceed %d, got %d", MaxPathSteps, int64(paths)*int64(steps))
	}
	return nil
}

func processRunner(proc models.Process, spot, dt float64, steps int) func(rand.Source) pathRunner {
	return func(src rand.Source) pathRunner {
		step := proc.Sampler(dt, src)
		return func(path []float64) float64 {
			price := spot
			if path != nil {
				path[0] = price
			}
			for k := 1; k <= steps; k++ {
				price = step(price)
				if path != nil {
					path[k] = price
				}
			}
			return price
		}
	}
}

// optionValue returns the discounted mean payoff and its standard error.
func (pl *plan) optionValue(terminals []float64) (float64, float64) {
	p := pl.params
	disc := math.Exp(-p.RiskFreeRate * p.Horizon)

	var sum, sumSq float64
	for _, s := range terminals {
		v := payoff(s, p.Strike, pl.isCall)
		sum += v
		sumSq += v * v
	}
	n := float64(len(terminals))
	mean := sum / n
	if len(terminals) < 2 {
		return disc * mean, 0
	}
	variance := (sumSq - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return disc * mean, disc * math.Sqrt(variance/n)
}

func payoff(spot, strike float64, isCall bool) float64 {
	if isCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// batchSeed derives an independent stream per batch (splitmix64 finaliser).
func batchSeed(seed uint64, batch int) uint64 {
	z := seed + uint64(batch+1)*seedMixConstant
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
