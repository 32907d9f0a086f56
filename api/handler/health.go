package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfprice/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// StatusReporter exposes what the health endpoint reports.
// *scraper.Scraper implements it.
type StatusReporter interface {
	Stats() models.SessionStats
	Stores() []string
	Renderer() string
	Uptime() time.Duration
}

// Health returns a handler for GET /api/health.
//
// Reports "degraded" when more than concurrentLimit sessions are open. A
// batch holds one session at a time, so the count is the number of batches
// in flight.
func Health(sr StatusReporter, concurrentLimit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sr.Stats()

		status := "healthy"
		if concurrentLimit > 0 && stats.Active > concurrentLimit {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       sr.Uptime().Round(time.Second).String(),
			Renderer:     sr.Renderer(),
			Stores:       sr.Stores(),
			SessionStats: stats,
			Version:      Version,
		})
	}
}
