package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/application/forecast"
	"github.com/turtacn/pipeline-engine/internal/domain/pipeline"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
)

// CommissionHandler serves commission, pipeline and currency endpoints.
type CommissionHandler struct {
	svc    forecast.CommissionService
	logger logging.Logger
}

// NewCommissionHandler creates a new CommissionHandler.
func NewCommissionHandler(svc forecast.CommissionService, logger logging.Logger) *CommissionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CommissionHandler{svc: svc, logger: logger}
}

// Calculate handles POST /api/v1/commission.
func (h *CommissionHandler) Calculate(c *gin.Context) {
	var req forecast.CommissionRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Calculate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PipelineFees handles GET /api/v1/pipeline/fees?policy=abort|skip.
func (h *CommissionHandler) PipelineFees(c *gin.Context) {
	req := forecast.PipelineRequest{Policy: pipeline.FailurePolicy(c.Query("policy"))}
	report, err := h.svc.PipelineFees(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Convert handles POST /api/v1/currency/convert.
func (h *CommissionHandler) Convert(c *gin.Context) {
	var req forecast.ConvertRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Convert(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

//Personal.AI order the ending
