package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/shelfprice/api/handler"
	"github.com/use-agent/shelfprice/api/middleware"
	"github.com/use-agent/shelfprice/config"
)

// Service is what the router needs from the scraper.
type Service interface {
	handler.PriceComparer
	handler.StatusReporter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  RateLimit
//
// Health and metrics are outside the rate limiter so probes always work.
// gatherer may be nil, in which case /metrics is not mounted. ctx bounds
// background middleware goroutines.
func NewRouter(ctx context.Context, svc Service, gatherer prometheus.Gatherer, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	a := r.Group("/api")
	a.GET("/health", handler.Health(svc, cfg.Server.DegradedSessions))
	a.POST("/scrape", middleware.RateLimit(ctx, cfg.RateLimit), handler.Scrape(svc, cfg.Scraper.MaxItems))

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
