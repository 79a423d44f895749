package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/bcdannyboy/pricinglab/pricing"
	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/bcdannyboy/pricinglab/report"
	"github.com/bcdannyboy/pricinglab/tradier"
	"github.com/spf13/pflag"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

type optionFlags struct {
	spot, strike, vol, rate, years *float64
	kind                           *string
}

func addOptionFlags(fs *pflag.FlagSet) optionFlags {
	return optionFlags{
		spot:   fs.Float64("spot", 100, "underlying price"),
		strike: fs.Float64("strike", 100, "strike price"),
		vol:    fs.Float64("vol", 0.2, "annualised volatility"),
		rate:   fs.Float64("rate", 0.05, "continuously compounded risk-free rate"),
		years:  fs.Float64("time", 1, "time to maturity in years"),
		kind:   fs.String("type", "call", "option type: call or put"),
	}
}

func (f optionFlags) params() (models.OptionParameters, error) {
	kind, err := models.ParseOptionType(*f.kind)
	if err != nil {
		return models.OptionParameters{}, err
	}
	return models.OptionParameters{
		Spot:           *f.spot,
		Strike:         *f.strike,
		Volatility:     *f.vol,
		RiskFreeRate:   *f.rate,
		TimeToMaturity: *f.years,
		OptionType:     kind,
	}, nil
}

func runBlackScholes(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("bs")
	opt := addOptionFlags(fs)
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	p, err := opt.params()
	if err != nil {
		return err
	}
	res, err := pricing.PriceBlackScholes(p)
	if err != nil {
		return err
	}
	second, err := pricing.SecondOrder(p)
	if err != nil {
		return err
	}
	out := struct {
		models.PricingResult
		SecondOrder pricing.SecondOrderGreeks `json:"secondOrder"`
	}{res, second}
	return a.emit(*asJSON, out, func(w io.Writer) error {
		return report.BlackScholes(w, p, res, second)
	})
}

func runBinomial(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("binomial")
	opt := addOptionFlags(fs)
	steps := fs.Int("steps", 100, fmt.Sprintf("lattice steps (1-%d)", pricing.MaxBinomialSteps))
	asJSON := fs.Bool("json", false, "print JSON, including every tree node")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	p, err := opt.params()
	if err != nil {
		return err
	}
	res, err := pricing.PriceBinomial(p, *steps)
	if err != nil {
		return err
	}
	return a.emit(*asJSON, res, func(w io.Writer) error {
		return report.Binomial(w, p, res)
	})
}

func runImpliedVolatility(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("iv")
	opt := addOptionFlags(fs)
	price := fs.Float64("price", 0, "observed option price")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	p, err := opt.params()
	if err != nil {
		return err
	}
	vol, err := pricing.ImpliedVolatility(p, *price)
	if err != nil {
		return err
	}
	return a.emit(*asJSON, map[string]float64{"impliedVolatility": vol}, func(w io.Writer) error {
		return report.ImpliedVolatility(w, p, *price, vol)
	})
}

func runSweep(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("sweep")
	opt := addOptionFlags(fs)
	from := fs.Float64("from", 50, "first spot")
	to := fs.Float64("to", 150, "last spot")
	points := fs.Int("points", 21, "number of spots")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	p, err := opt.params()
	if err != nil {
		return err
	}
	res, err := pricing.SweepSpot(p, *from, *to, *points)
	if err != nil {
		return err
	}
	return a.emit(*asJSON, res, func(w io.Writer) error {
		return report.Sweep(w, res)
	})
}

func runMonteCarlo(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("mc")
	model := fs.String("model", string(probability.ModelGBM), "gbm, jump-diffusion or portfolio-var")
	spot := fs.Float64("spot", 100, "initial price")
	drift := fs.Float64("drift", 0.05, "annualised drift")
	vol := fs.Float64("vol", 0.2, "annualised volatility")
	horizon := fs.Float64("horizon", 1, "horizon in years")
	paths := fs.Int("paths", 10_000, "number of paths")
	steps := fs.Int("steps", 252, "steps per path")
	seed := fs.Uint64("seed", 0, "PRNG seed (random when unset)")
	strike := fs.Float64("strike", 0, "price a European option at this strike when positive")
	kind := fs.String("type", "call", "option type: call or put")
	rate := fs.Float64("rate", 0.05, "discount rate for the option price")
	lambda := fs.Float64("lambda", 1, "jump intensity per year")
	jumpMu := fs.Float64("jump-mu", -0.05, "mean log jump size")
	jumpDelta := fs.Float64("jump-delta", 0.1, "log jump size volatility")
	value := fs.Float64("value", 1_000_000, "portfolio value")
	weights := fs.Float64Slice("weights", nil, "portfolio weights")
	vols := fs.Float64Slice("vols", nil, "asset volatilities")
	returns := fs.Float64Slice("returns", nil, "asset expected returns")
	corr := fs.String("corr", "", "correlation matrix, rows split by ';' (e.g. '1,0.3;0.3,1')")
	confidence := fs.Float64("confidence", 0.95, "VaR confidence level")
	percentiles := fs.Float64Slice("percentiles", nil, "percentile levels to report")
	samples := fs.Int("sample-paths", 0, fmt.Sprintf("paths to return (0-%d)", probability.MaxSamplePaths))
	progress := fs.Bool("progress", true, "show a progress bar")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	m, err := probability.ParseModel(*model)
	if err != nil {
		return err
	}
	params := probability.SimulationParams{
		Model:        m,
		Spot:         *spot,
		Drift:        *drift,
		Volatility:   *vol,
		Horizon:      *horizon,
		NumPaths:     *paths,
		NumSteps:     *steps,
		Strike:       *strike,
		OptionType:   models.OptionType(*kind),
		RiskFreeRate: *rate,
		Percentiles:  *percentiles,
		SamplePaths:  *samples,
	}
	if fs.Changed("seed") {
		params.Seed = seed
	}
	switch m {
	case probability.ModelJumpDiffusion:
		params.Jump = &probability.JumpParams{Lambda: *lambda, Mu: *jumpMu, Delta: *jumpDelta}
	case probability.ModelPortfolioVaR:
		matrix, err := parseMatrix(*corr)
		if err != nil {
			return err
		}
		params.Portfolio = &probability.Portfolio{
			Value:           *value,
			Weights:         *weights,
			ExpectedReturns: *returns,
			Volatilities:    *vols,
			Correlation:     matrix,
			Confidence:      *confidence,
		}
	}

	var (
		opts []probability.Option
		bars *mpb.Progress
		bar  *mpb.Bar
	)
	if *progress && !*asJSON && *paths > 0 {
		bars = mpb.New(mpb.WithWidth(64), mpb.WithOutput(a.stderr))
		bar = bars.AddBar(int64(*paths),
			mpb.PrependDecorators(
				decor.Name("Paths"),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
		opts = append(opts, probability.WithProgress(func(n int) { bar.IncrBy(n) }))
	}

	start := time.Now()
	summary, err := a.newEngine(opts...).Simulate(ctx, params)
	if bars != nil {
		if err != nil {
			bar.Abort(false)
		}
		bars.Wait()
	}
	if err != nil {
		return err
	}
	a.logger.Debug("simulation done", "elapsed", time.Since(start))

	return a.emit(*asJSON, summary, func(w io.Writer) error {
		return report.Simulation(w, summary)
	})
}

// parseMatrix reads rows separated by ';' and columns by ','.
func parseMatrix(s string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var m [][]float64
	for _, line := range strings.Split(s, ";") {
		var row []float64
		for _, cell := range strings.Split(line, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("corr: %w", err)
			}
			row = append(row, v)
		}
		m = append(m, row)
	}
	return m, nil
}

func runBond(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("bond")
	face := fs.Float64("face", 1000, "face value")
	coupon := fs.Float64("coupon", 0.05, "annual coupon rate")
	ytm := fs.Float64("yield", 0.05, "yield to maturity (also the solver's starting guess)")
	maturity := fs.Float64("maturity", 10, "years to maturity")
	freq := fs.Int("freq", 2, "coupon payments per year")
	cashflows := fs.Bool("cashflows", false, "list the cash-flow schedule")
	price := fs.Float64("price", 0, "solve for the yield that reproduces this price")
	shift := fs.Float64("sweep-shift", 0, "reprice across yield +/- this shift when positive")
	points := fs.Int("sweep-points", 9, "yields in the sweep")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	b := models.BondParameters{
		FaceValue:       *face,
		CouponRate:      *coupon,
		YieldToMaturity: *ytm,
		MaturityYears:   *maturity,
		PaymentsPerYear: *freq,
	}

	if fs.Changed("price") {
		y, err := pricing.YieldFromPrice(b, *price)
		if err != nil {
			return err
		}
		return a.emit(*asJSON, map[string]float64{"price": *price, "yieldToMaturity": y}, func(w io.Writer) error {
			return report.YieldToMaturity(w, *price, y)
		})
	}

	if *shift > 0 {
		res, err := pricing.YieldSweep(b, *shift, *points)
		if err != nil {
			return err
		}
		return a.emit(*asJSON, res, func(w io.Writer) error {
			return report.YieldSweep(w, res)
		})
	}

	analytics, err := pricing.PriceBond(b)
	if err != nil {
		return err
	}
	var flows []pricing.CashFlow
	if *cashflows {
		if flows, err = pricing.BondCashFlows(b); err != nil {
			return err
		}
	}
	out := struct {
		models.BondAnalytics
		CashFlows []pricing.CashFlow `json:"cashFlows,omitempty"`
	}{analytics, flows}
	return a.emit(*asJSON, out, func(w io.Writer) error {
		return report.Bond(w, b, analytics, flows)
	})
}

func runCurve(_ context.Context, a *app, args []string) error {
	fs := a.flagSet("curve")
	maturities := fs.Float64Slice("maturities", []float64{0.25, 0.5, 1, 2, 5, 10, 30}, "maturities in years")
	yields := fs.Float64Slice("yields", nil, "observed zero yields, one per maturity")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	fit, err := pricing.FitNelsonSiegel(*maturities, *yields)
	if err != nil {
		return err
	}
	return a.emit(*asJSON, fit, func(w io.Writer) error {
		return report.Curve(w, fit, *yields)
	})
}

func runVolatility(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("vol")
	symbol := fs.String("symbol", "SPY", "ticker")
	years := fs.Int("years", 1, "years of daily history to fetch")
	days := fs.Int("days", models.TradingDaysPerYear, "bars used by the estimators (0 = all)")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	client, err := tradier.NewClient(a.cfg.TradierKey, tradier.WithBaseURL(a.cfg.TradierBaseURL))
	if err != nil {
		return fmt.Errorf("%w (set TRADIER_KEY)", err)
	}

	end := time.Now()
	start := end.AddDate(-*years, 0, 0)
	history, err := client.GetQuotes(ctx, *symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), "daily")
	if err != nil {
		return err
	}
	bars := history.Bars()
	a.logger.Debug("fetched history", "symbol", *symbol, "bars", len(bars))

	est, err := models.EstimateVolatility(bars, *days)
	if err != nil {
		return err
	}
	jumps, err := models.FitMertonJumps(models.Closes(bars), 1.0/models.TradingDaysPerYear)
	if err != nil {
		return err
	}

	out := struct {
		Symbol     string                      `json:"symbol"`
		Volatility models.VolatilityEstimate   `json:"volatility"`
		Merton     *models.MertonJumpDiffusion `json:"merton"`
	}{*symbol, est, jumps}
	return a.emit(*asJSON, out, func(w io.Writer) error {
		return report.Volatility(w, *symbol, est, jumps)
	})
}
