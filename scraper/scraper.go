// Package scraper runs price queries: one rendering session per
// (retailer, term) pair, results in term-major order.
package scraper

import (
	"log/slog"
	"time"

	"github.com/use-agent/shelfprice/cache"
	"github.com/use-agent/shelfprice/config"
	"github.com/use-agent/shelfprice/engine"
	"github.com/use-agent/shelfprice/models"
	"github.com/use-agent/shelfprice/retailer"
	"golang.org/x/time/rate"
)

// sessionHeaders are sent by every session. The retailers are UK grocers.
var sessionHeaders = map[string]string{
	"Accept-Language": "en-GB,en;q=0.9",
}

// Scraper queries every retailer in a registry through one Launcher.
// It is safe for concurrent use; each query owns its session exclusively.
type Scraper struct {
	launcher engine.Launcher
	registry *retailer.Registry
	cfg      config.ScraperConfig

	cache    *cache.Cache
	metrics  *Metrics
	limiters map[string]*rate.Limiter
	listener BatchListener

	startTime time.Time
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithCache answers repeated (store, term) queries from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Scraper) { s.cache = c }
}

// WithMetrics records query outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scraper) { s.metrics = m }
}

// BatchListener is told about every finished batch. Implementations must
// not modify results and must not block.
type BatchListener interface {
	BatchCompleted(batchID string, terms []string, results []models.ResultRecord)
}

// WithBatchListener notifies l after each Compare.
func WithBatchListener(l BatchListener) Option {
	return func(s *Scraper) { s.listener = l }
}

// New creates a Scraper. The registry is read-only from here on.
func New(launcher engine.Launcher, registry *retailer.Registry, cfg config.ScraperConfig, opts ...Option) *Scraper {
	s := &Scraper{
		launcher:  launcher,
		registry:  registry,
		cfg:       cfg,
		limiters:  make(map[string]*rate.Limiter),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.StoreRPS > 0 {
		for _, name := range registry.Names() {
			s.limiters[name] = rate.NewLimiter(rate.Limit(cfg.StoreRPS), 1)
		}
	}

	slog.Info("scraper ready",
		"renderer", launcher.Name(),
		"stores", registry.Names(),
		"cache", s.cache != nil,
	)
	return s
}

// Stores returns the retailer names in query order.
func (s *Scraper) Stores() []string {
	return s.registry.Names()
}

// Stats returns a snapshot of rendering session usage.
func (s *Scraper) Stats() models.SessionStats {
	return s.launcher.Stats()
}

// Renderer names the rendering backend.
func (s *Scraper) Renderer() string {
	return s.launcher.Name()
}

// Uptime is the time since the scraper was created.
func (s *Scraper) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Close shuts the rendering backend down.
func (s *Scraper) Close() error {
	slog.Info("scraper shutting down")
	return s.launcher.Close()
}
