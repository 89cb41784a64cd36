package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/littlelemon/pkg/metrics"
	"github.com/wyfcoding/littlelemon/pkg/middleware"
)

// RouterConfig selects the optional parts of the engine.
type RouterConfig struct {
	Debug        bool
	AllowOrigins []string
	// MetricsPath is served when Metrics is set
	MetricsPath string
	Metrics     *metrics.Metrics
	// Limiter throttles /api when set
	Limiter middleware.Limiter
}

// NewRouter builds the gin engine of the read API.
func NewRouter(cfg RouterConfig, handler *MenuHandler) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(cfg.Metrics),
		middleware.GinCORSMiddleware(cfg.AllowOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		r.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.Limiter != nil {
		api.Use(middleware.GinRateLimitMiddleware(cfg.Limiter))
	}
	handler.RegisterRoutes(api)
	return r
}
