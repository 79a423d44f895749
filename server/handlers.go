package server

import (
	"net/http"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/bcdannyboy/pricinglab/pricing"
	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/gin-gonic/gin"
)

type BlackScholesResponse struct {
	models.PricingResult
	SecondOrder pricing.SecondOrderGreeks `json:"secondOrder"`
}

type BinomialRequest struct {
	models.OptionParameters
	Steps int `json:"steps"`
}

type ImpliedVolatilityRequest struct {
	models.OptionParameters
	MarketPrice float64 `json:"marketPrice"`
}

type SweepRequest struct {
	models.OptionParameters
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Points int     `json:"points"`
}

type BondPriceRequest struct {
	models.BondParameters
	CashFlows bool `json:"cashFlows"`
}

type BondPriceResponse struct {
	models.BondAnalytics
	CashFlows []pricing.CashFlow `json:"cashFlows,omitempty"`
}

type BondSweepRequest struct {
	models.BondParameters
	MaxShift float64 `json:"maxShift"`
	Points   int     `json:"points"`
}

type BondYieldRequest struct {
	models.BondParameters
	Price float64 `json:"price"`
}

type CurveRequest struct {
	Maturities []float64 `json:"maturities"`
	Yields     []float64 `json:"yields"`
}

func (h *handler) blackScholes(c *gin.Context) {
	var req models.OptionParameters
	if !h.bind(c, &req) {
		return
	}
	res, err := pricing.PriceBlackScholes(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	second, err := pricing.SecondOrder(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, BlackScholesResponse{PricingResult: res, SecondOrder: second})
}

func (h *handler) binomial(c *gin.Context) {
	var req BinomialRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := pricing.PriceBinomial(req.OptionParameters, req.Steps)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) impliedVolatility(c *gin.Context) {
	var req ImpliedVolatilityRequest
	if !h.bind(c, &req) {
		return
	}
	vol, err := pricing.ImpliedVolatility(req.OptionParameters, req.MarketPrice)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"impliedVolatility": vol})
}

func (h *handler) sweep(c *gin.Context) {
	var req SweepRequest
	if !h.bind(c, &req) {
		return
	}
	points, err := pricing.SweepSpot(req.OptionParameters, req.From, req.To, req.Points)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (h *handler) monteCarlo(c *gin.Context) {
	var req probability.SimulationParams
	if !h.bind(c, &req) {
		return
	}
	summary, err := h.sim.Simulate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handler) bondPrice(c *gin.Context) {
	var req BondPriceRequest
	if !h.bind(c, &req) {
		return
	}
	analytics, err := pricing.PriceBond(req.BondParameters)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := BondPriceResponse{BondAnalytics: analytics}
	if req.CashFlows {
		if resp.CashFlows, err = pricing.BondCashFlows(req.BondParameters); err != nil {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) bondSweep(c *gin.Context) {
	var req BondSweepRequest
	if !h.bind(c, &req) {
		return
	}
	points, err := pricing.YieldSweep(req.BondParameters, req.MaxShift, req.Points)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (h *handler) bondYield(c *gin.Context) {
	var req BondYieldRequest
	if !h.bind(c, &req) {
		return
	}
	y, err := pricing.YieldFromPrice(req.BondParameters, req.Price)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"yieldToMaturity": y})
}

func (h *handler) nelsonSiegel(c *gin.Context) {
	var req CurveRequest
	if !h.bind(c, &req) {
		return
	}
	fit, err := pricing.FitNelsonSiegel(req.Maturities, req.Yields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fit)
}
