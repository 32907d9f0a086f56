package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/shelfprice/models"
)

// Compare runs every term against every retailer, one query at a time, and
// returns len(terms)*len(stores) records ordered term-major then in registry
// order. It never fails: broken queries show up as "Error" records.
func (s *Scraper) Compare(ctx context.Context, terms []string) []models.ResultRecord {
	batchID := uuid.NewString()
	log := slog.With("batch", batchID)
	profiles := s.registry.All()
	start := time.Now()

	s.metrics.IncBatch()
	log.Info("batch started", "terms", len(terms), "stores", len(profiles))

	results := make([]models.ResultRecord, 0, len(terms)*len(profiles))
	outcomes := make(map[string]int, 4)
	for _, term := range terms {
		for _, profile := range profiles {
			rec := s.runQuery(ctx, log, profile, term)
			outcomes[rec.Outcome()]++
			results = append(results, rec)
		}
	}

	log.Info("batch finished",
		"results", len(results),
		"matched", outcomes[models.OutcomeMatch],
		"no_price", outcomes[models.OutcomeNoPrice],
		"not_found", outcomes[models.OutcomeNotFound],
		"errors", outcomes[models.OutcomeError],
		"elapsed", time.Since(start),
	)
	if s.listener != nil {
		s.listener.BatchCompleted(batchID, terms, results)
	}
	return results
}
