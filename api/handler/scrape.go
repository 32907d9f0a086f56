package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfprice/models"
)

// PriceComparer runs a comparison batch. *scraper.Scraper implements it.
type PriceComparer interface {
	Compare(ctx context.Context, terms []string) []models.ResultRecord
}

// Scrape returns a handler for POST /api/scrape.
//
// Flow:
//  1. Bind {"items":[{"name":...}]}; anything else is a 400 and no
//     session is ever opened.
//  2. Enforce the batch size limit.
//  3. Compare every item against every retailer and return the flat
//     array of {name, price, store}. Per-retailer failures are rows with
//     price "Error", never a failed response.
func Scrape(pc PriceComparer, maxItems int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Debug("rejected scrape request", "error", err)
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "Invalid items array", err))
			return
		}

		// ── 2. Size limit ───────────────────────────────────────────
		if maxItems > 0 && len(req.Items) > maxItems {
			respondError(c, models.NewScrapeError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("too many items: %d (max %d)", len(req.Items), maxItems),
				nil,
			))
			return
		}

		// ── 3. Compare ──────────────────────────────────────────────
		// A batch runs to completion even if the client goes away.
		terms := req.Terms()
		results := pc.Compare(context.WithoutCancel(c.Request.Context()), terms)

		slog.Info("scrape request served",
			"items", len(terms),
			"results", len(results),
			"elapsed", time.Since(start),
		)
		c.JSON(http.StatusOK, results)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr, ok := err.(*models.ScrapeError)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{Error: *scrapeErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
