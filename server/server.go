// Package server exposes the pricers as a JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bcdannyboy/pricinglab/models"
	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/gin-gonic/gin"
)

const serviceName = "pricinglab"

// Simulator runs Monte Carlo simulations; *probability.Engine implements it.
type Simulator interface {
	Simulate(ctx context.Context, params probability.SimulationParams) (probability.SimulationSummary, error)
}

type handler struct {
	sim    Simulator
	logger *slog.Logger
}

// ErrorResponse is the body of every non-2xx response. Kind is one of
// "domain", "configuration", "request", "canceled" or "internal".
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func NewRouter(sim Simulator, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{sim: sim, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": time.Now().Unix(),
		})
	})

	v1 := r.Group("/v1")
	{
		options := v1.Group("/options")
		options.POST("/black-scholes", h.blackScholes)
		options.POST("/binomial", h.binomial)
		options.POST("/implied-volatility", h.impliedVolatility)
		options.POST("/sweep", h.sweep)

		v1.POST("/simulations/monte-carlo", h.monteCarlo)

		bonds := v1.Group("/bonds")
		bonds.POST("/price", h.bondPrice)
		bonds.POST("/sweep", h.bondSweep)
		bonds.POST("/yield", h.bondYield)

		v1.POST("/curves/nelson-siegel", h.nelsonSiegel)
	}
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}

// bind decodes the JSON body into req, answering 400 on failure.
func (h *handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "request"})
		return false
	}
	return true
}

func (h *handler) fail(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrDomain):
		return http.StatusUnprocessableEntity, "domain"
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest, "configuration"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	}
	return http.StatusInternalServerError, "internal"
}
