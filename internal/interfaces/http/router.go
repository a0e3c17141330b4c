package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pipeline-engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pipeline-engine/internal/interfaces/http/handlers"
	"github.com/turtacn/pipeline-engine/internal/interfaces/http/middleware"
	"github.com/turtacn/pipeline-engine/pkg/errors"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	CommissionHandler *handlers.CommissionHandler
	IntensityHandler  *handlers.IntensityHandler
	HealthHandler     *handlers.HealthHandler

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.EngineMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
	Logging          *middleware.LoggingConfig
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration.  Nil handlers leave their routes unmounted.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	r := gin.New()

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, logCfg))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Code:      string(errors.ErrCodeNotFound),
			Message:   errors.DefaultMessageForCode(errors.ErrCodeNotFound),
			RequestID: middleware.GetRequestID(c),
		})
	})

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	registerCommissionRoutes(api, cfg.CommissionHandler)
	registerIntensityRoutes(api, cfg.IntensityHandler)

	return r
}

// registerCommissionRoutes mounts commission, pipeline and currency endpoints.
func registerCommissionRoutes(r *gin.RouterGroup, h *handlers.CommissionHandler) {
	if h == nil {
		return
	}
	r.POST("/commission", h.Calculate)
	r.GET("/pipeline/fees", h.PipelineFees)
	r.POST("/currency/convert", h.Convert)
}

// registerIntensityRoutes mounts engagement intensity endpoints under /intensity.
func registerIntensityRoutes(r *gin.RouterGroup, h *handlers.IntensityHandler) {
	if h == nil {
		return
	}
	ir := r.Group("/intensity")
	ir.GET("/config", h.Config)
	ir.GET("/temperatures", h.Temperatures)
	ir.POST("/score", h.Score)
	ir.POST("/classify", h.Classify)
	ir.POST("/required", h.Required)
	ir.POST("/health", h.Health)
	ir.POST("/calibrate", h.Calibrate)
}

//Personal.AI order the ending
