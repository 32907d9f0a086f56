package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/shelfprice/engine"
	"github.com/use-agent/shelfprice/models"
	"github.com/use-agent/shelfprice/retailer"
)

// Query looks term up at one retailer and always returns exactly one record.
// Failures never escape: they are logged and reported as the "Error" price.
func (s *Scraper) Query(ctx context.Context, profile retailer.Profile, term string) models.ResultRecord {
	return s.runQuery(ctx, slog.Default(), profile, term)
}

func (s *Scraper) runQuery(ctx context.Context, log *slog.Logger, profile retailer.Profile, term string) models.ResultRecord {
	log = log.With("store", profile.Name, "term", term)
	start := time.Now()

	if rec, ok := s.cache.Get(profile.Name, term); ok {
		// The entry may have been stored under a differently cased term.
		rec = rec.ForTerm(term)
		s.metrics.IncCacheHit()
		s.metrics.ObserveQuery(profile.Name, rec.Outcome(), time.Since(start))
		log.Debug("served from cache", "price", rec.Price)
		return rec
	}

	rec, err := s.query(ctx, log, profile, term)
	if err != nil {
		se := categorizeError(err, "query failed")
		log.Warn("query failed",
			"code", se.Code,
			"error", err,
			"elapsed", time.Since(start),
		)
		s.metrics.IncError(profile.Name, se.Code)
		rec = models.Failed(term, profile.Name)
	}

	s.metrics.ObserveQuery(profile.Name, rec.Outcome(), time.Since(start))
	s.cache.Set(profile.Name, term, rec)
	return rec
}

// query drives one session through navigate, wait and extract.
//
// Lifecycle:
//
//  1. Politeness wait  – per-retailer limiter, before any session exists
//  2. Launch           – fresh isolated session with the fixed identity
//  3. DEFER: Close     – the single release point for every exit path
//  4. Navigate         – bounded by NavigationTimeout; failure is an error
//  5. Wait             – bounded by ContentTimeout; a timeout only means
//     there are no listings, any other failure is an error
//  6. Extract          – first matching listing, or not found
func (s *Scraper) query(ctx context.Context, log *slog.Logger, profile retailer.Profile, term string) (rec models.ResultRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewScrapeError(models.ErrCodeInternal, fmt.Sprintf("panic during query: %v", r), nil)
		}
	}()

	// ── 1. Politeness wait ───────────────────────────────────────────
	if lim := s.limiters[profile.Name]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return rec, err
		}
	}

	// ── 2. Launch ─────────────────────────────────────────────────────
	sess, err := s.launcher.Launch(ctx, engine.SessionOptions{
		UserAgent: s.cfg.UserAgent,
		Headers:   sessionHeaders,
		Stealth:   s.cfg.Stealth,
	})
	if err != nil {
		return rec, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch session", err)
	}
	s.metrics.SessionOpened()

	// ── 3. Release on every path ──────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Debug("session close failed", "error", closeErr)
		}
		s.metrics.SessionClosed()
	}()

	// ── 4. Navigate ───────────────────────────────────────────────────
	searchURL := profile.SearchURLFor(term)
	log.Debug("navigating", "url", searchURL)
	if err := sess.Navigate(ctx, searchURL, s.cfg.NavigationTimeout); err != nil {
		return rec, categorizeError(err, "navigation to search page failed")
	}

	// ── 5. Wait for listings ──────────────────────────────────────────
	if err := sess.WaitVisible(ctx, profile.Locators.Listing, s.cfg.ContentTimeout); err != nil {
		if !errors.Is(err, engine.ErrWaitTimeout) {
			return rec, categorizeError(err, "waiting for listings failed")
		}
		log.Debug("no visible listings before timeout", "timeout", s.cfg.ContentTimeout)
	}

	// ── 6. Extract ────────────────────────────────────────────────────
	m, ok, err := Extract(ctx, sess, profile, term)
	if err != nil {
		return rec, categorizeError(err, "listing extraction failed")
	}
	if !ok {
		log.Info("no matching listing")
		return models.NotFound(term, profile.Name), nil
	}

	price := models.PriceUnavailable
	if m.HasPrice {
		price = NormalizePrice(m.PriceText)
	}
	log.Info("listing matched",
		"name", m.DisplayName,
		"price", price,
		"brand", m.Brand,
		"link", m.Link,
	)
	return models.ResultRecord{Query: term, Name: m.DisplayName, Price: price, Store: profile.Name}, nil
}

// categorizeError wraps raw errors into typed ScrapeErrors for logs and
// metrics. Errors that already carry a code are returned unchanged.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, engine.ErrNavigationTimeout),
		errors.Is(err, engine.ErrWaitTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case errors.Is(err, engine.ErrSessionClosed):
		return models.NewScrapeError(models.ErrCodeBrowserCrash, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
