// Package report renders pricing results as aligned text tables for the CLI.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/bcdannyboy/pricinglab/pricing"
	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/shopspring/decimal"
)

const (
	pricePlaces = 4
	ratePlaces  = 6

	// Trees deeper than this are summarised instead of drawn.
	maxTreeSteps = 8
)

// Num rounds v half away from zero to places decimals. NaN and infinities
// render as "n/a".
func Num(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func BlackScholes(w io.Writer, p models.OptionParameters, r models.PricingResult, second pricing.SecondOrderGreeks) error {
	t := newTable(w)
	t.row("Spot", Num(p.Spot, pricePlaces))
	t.row("Strike", Num(p.Strike, pricePlaces))
	t.row("Volatility", Percent(p.Volatility))
	t.row("Rate", Percent(p.RiskFreeRate))
	t.row("Maturity (y)", Num(p.TimeToMaturity, pricePlaces))
	t.row("", "")
	t.row("Call", Num(r.CallPrice, pricePlaces))
	t.row("Put", Num(r.PutPrice, pricePlaces))
	t.row("", "")
	t.row("Greeks ("+string(optionType(p))+")", "")
	greeks(t, r.Greeks)
	t.row("  Shadow gamma up", Num(second.ShadowGammaUp, ratePlaces))
	t.row("  Shadow gamma down", Num(second.ShadowGammaDown, ratePlaces))
	t.row("  Vomma", Num(second.Vomma, ratePlaces))
	return t.flush()
}

func greeks(t *table, g models.Greeks) {
	t.row("  Delta", Num(g.Delta, ratePlaces))
	t.row("  Gamma", Num(g.Gamma, ratePlaces))
	t.row("  Vega", Num(g.Vega, ratePlaces))
	t.row("  Theta", Num(g.Theta, ratePlaces))
	t.row("  Rho", Num(g.Rho, ratePlaces))
}

func optionType(p models.OptionParameters) models.OptionType {
	if p.IsCall() {
		return models.Call
	}
	return models.Put
}

func Binomial(w io.Writer, p models.OptionParameters, r models.BinomialResult) error {
	t := newTable(w)
	t.row("Type", string(optionType(p)))
	t.row("Steps", fmt.Sprint(r.Steps))
	t.row("Up", Num(r.Up, ratePlaces))
	t.row("Down", Num(r.Down, ratePlaces))
	t.row("Probability", Num(r.Probability, ratePlaces))
	t.row("Price", Num(r.Price, pricePlaces))
	if err := t.flush(); err != nil {
		return err
	}

	if r.Steps > maxTreeSteps {
		_, err := fmt.Fprintf(w, "\n(tree of %d steps omitted; use --json for every node)\n", r.Steps)
		return err
	}
	fmt.Fprintln(w)
	t = newTable(w)
	t.row("Step", "Up moves", "Underlying", "Value")
	for _, level := range r.Tree {
		for _, n := range level {
			t.row(fmt.Sprint(n.Step), fmt.Sprint(n.UpMoves), Num(n.UnderlyingPrice, pricePlaces), Num(n.OptionValue, pricePlaces))
		}
	}
	return t.flush()
}

func ImpliedVolatility(w io.Writer, p models.OptionParameters, marketPrice, vol float64) error {
	t := newTable(w)
	t.row("Type", string(optionType(p)))
	t.row("Market price", Num(marketPrice, pricePlaces))
	t.row("Implied volatility", Percent(vol))
	return t.flush()
}

func Sweep(w io.Writer, points []pricing.SweepPoint) error {
	t := newTable(w)
	t.row("Spot", "Price", "Delta", "Gamma", "Vega", "Theta", "Rho")
	for _, pt := range points {
		g := pt.Greeks
		t.row(Num(pt.Spot, pricePlaces), Num(pt.Price, pricePlaces),
			Num(g.Delta, ratePlaces), Num(g.Gamma, ratePlaces), Num(g.Vega, ratePlaces),
			Num(g.Theta, ratePlaces), Num(g.Rho, ratePlaces))
	}
	return t.flush()
}

func Simulation(w io.Writer, s probability.SimulationSummary) error {
	t := newTable(w)
	t.row("Model", string(s.Model))
	t.row("Paths", fmt.Sprint(s.NumPaths))
	t.row("Steps", fmt.Sprint(s.NumSteps))
	t.row("Seed", fmt.Sprint(s.Seed))
	t.row("", "")
	t.row("Mean", Num(s.Mean, pricePlaces))
	t.row("Median", Num(s.Median, pricePlaces))
	t.row("Std dev", Num(s.StdDev, pricePlaces))
	t.row("Min", Num(s.Min, pricePlaces))
	t.row("Max", Num(s.Max, pricePlaces))
	for _, p := range s.Percentiles {
		t.row(fmt.Sprintf("P%s", decimal.NewFromFloat(p.Level).String()), Num(p.Value, pricePlaces))
	}
	if s.OptionPrice != nil {
		t.row("", "")
		t.row("Option price", Num(*s.OptionPrice, pricePlaces))
		t.row("Std error", Num(*s.StdError, pricePlaces))
	}
	if s.ValueAtRisk != nil {
		t.row("", "")
		t.row("VaR", Num(*s.ValueAtRisk, pricePlaces))
		t.row("CVaR", Num(*s.ConditionalVaR, pricePlaces))
	}
	return t.flush()
}

func Bond(w io.Writer, p models.BondParameters, a models.BondAnalytics, flows []pricing.CashFlow) error {
	t := newTable(w)
	t.row("Face", Num(p.FaceValue, 2))
	t.row("Coupon", Percent(p.CouponRate))
	t.row("Yield", Percent(p.YieldToMaturity))
	t.row("Maturity (y)", Num(p.MaturityYears, 2))
	t.row("Payments/year", fmt.Sprint(p.PaymentsPerYear))
	t.row("", "")
	t.row("Price", Num(a.Price, pricePlaces))
	t.row("Macaulay duration", Num(a.MacaulayDuration, pricePlaces))
	t.row("Modified duration", Num(a.ModifiedDuration, pricePlaces))
	t.row("Convexity", Num(a.Convexity, pricePlaces))
	if err := t.flush(); err != nil {
		return err
	}
	if len(flows) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	t = newTable(w)
	t.row("Period", "Time", "Amount", "PV")
	for _, f := range flows {
		t.row(fmt.Sprint(f.Period), Num(f.Time, 2), f.Amount.StringFixed(2), Num(f.PresentValue, pricePlaces))
	}
	return t.flush()
}

func YieldSweep(w io.Writer, points []pricing.YieldPoint) error {
	t := newTable(w)
	t.row("Shift", "Yield", "Exact", "Duration", "Duration+Convexity")
	for _, pt := range points {
		t.row(Percent(pt.Shift), Percent(pt.Yield), Num(pt.ExactPrice, pricePlaces),
			Num(pt.DurationApprox, pricePlaces), Num(pt.ConvexityApprox, pricePlaces))
	}
	return t.flush()
}

func YieldToMaturity(w io.Writer, price, yield float64) error {
	t := newTable(w)
	t.row("Price", Num(price, pricePlaces))
	t.row("Yield to maturity", Percent(yield))
	return t.flush()
}

func Curve(w io.Writer, fit pricing.CurveFit, observed []float64) error {
	t := newTable(w)
	t.row("Beta0", Num(fit.Curve.Beta0, ratePlaces))
	t.row("Beta1", Num(fit.Curve.Beta1, ratePlaces))
	t.row("Beta2", Num(fit.Curve.Beta2, ratePlaces))
	t.row("Tau", Num(fit.Curve.Tau, ratePlaces))
	t.row("RMSE (bp)", Num(fit.RMSEBps, 2))
	if err := t.flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	t = newTable(w)
	t.row("Maturity", "Observed", "Fitted", "Discount")
	for i, m := range fit.Maturity {
		obs := "n/a"
		if i < len(observed) {
			obs = Percent(observed[i])
		}
		t.row(Num(m, 2), obs, Percent(fit.Fitted[i]), Num(fit.Curve.DiscountFactor(m), ratePlaces))
	}
	return t.flush()
}

func Volatility(w io.Writer, symbol string, est models.VolatilityEstimate, jumps *models.MertonJumpDiffusion) error {
	t := newTable(w)
	t.row("Symbol", symbol)
	t.row("Observations", fmt.Sprint(est.Observations))
	t.row("Close-to-close", Percent(est.CloseToClose))
	t.row("Parkinson", Percent(est.Parkinson))
	t.row("Garman-Klass", Percent(est.GarmanKlass))
	t.row("Rogers-Satchell", Percent(est.RogersSatchell))
	t.row("Yang-Zhang", Percent(est.YangZhang))
	if jumps != nil {
		t.row("", "")
		t.row("Merton drift", Percent(jumps.Drift))
		t.row("Merton sigma", Percent(jumps.Sigma))
		t.row("Jump lambda", Num(jumps.Lambda, ratePlaces))
		t.row("Jump mu", Num(jumps.Mu, ratePlaces))
		t.row("Jump delta", Num(jumps.Delta, ratePlaces))
	}
	return t.flush()
}
