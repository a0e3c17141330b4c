package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
)

// IntensityHandler serves the engagement intensity endpoints.
type IntensityHandler struct {
	svc    forecast.IntensityService
	logger logging.Logger
}

// NewIntensityHandler creates a new IntensityHandler.
func NewIntensityHandler(svc forecast.IntensityService, logger logging.Logger) *IntensityHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IntensityHandler{svc: svc, logger: logger}
}

// Config handles GET /api/v1/intensity/config.
func (h *IntensityHandler) Config(c *gin.Context) {
	cfg, err := h.svc.Config(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Score handles POST /api/v1/intensity/score.
func (h *IntensityHandler) Score(c *gin.Context) {
	var req forecast.ScoreRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Score(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Classify handles POST /api/v1/intensity/classify.
func (h *IntensityHandler) Classify(c *gin.Context) {
	var req forecast.ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Classify(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Required handles POST /api/v1/intensity/required.
func (h *IntensityHandler) Required(c *gin.Context) {
	var req forecast.RequiredRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Required(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles POST /api/v1/intensity/health.
func (h *IntensityHandler) Health(c *gin.Context) {
	var req forecast.HealthRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Health(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Calibrate handles POST /api/v1/intensity/calibrate.
func (h *IntensityHandler) Calibrate(c *gin.Context) {
	var req forecast.CalibrateRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Calibrate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.WithContext(c.Request.Context()).Info("calibration requested",
		logging.String("result", resp.Result))
	c.JSON(http.StatusOK, resp)
}

// Temperatures handles GET /api/v1/intensity/temperatures.
func (h *IntensityHandler) Temperatures(c *gin.Context) {
	resp, err := h.svc.PortfolioTemperatures(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

//Personal.AI order the ending
