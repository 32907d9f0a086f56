package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/shelfprice/cache"
	"github.com/use-agent/shelfprice/config"
	"github.com/use-agent/shelfprice/engine"
	"github.com/use-agent/shelfprice/retailer"
	"github.com/use-agent/shelfprice/scraper"
	"github.com/use-agent/shelfprice/webhook"
)

// newLauncher starts the configured rendering backend.
func newLauncher(cfg *config.Config) (engine.Launcher, error) {
	switch cfg.Browser.Renderer {
	case config.RendererHTTP:
		return engine.NewHTTPLauncher(engine.HTTPOptions{Proxy: cfg.Browser.Proxy})
	default:
		return engine.NewRodLauncher(engine.RodOptions{
			Headless:             cfg.Browser.Headless,
			NoSandbox:            cfg.Browser.NoSandbox,
			BrowserBin:           cfg.Browser.BrowserBin,
			Proxy:                cfg.Browser.Proxy,
			BlockedResourceTypes: cfg.Scraper.BlockedResourceTypes,
			BlockTrackers:        cfg.Scraper.BlockTrackers,
		})
	}
}

// app bundles what the commands run.
type app struct {
	scraper  *scraper.Scraper
	metrics  *scraper.Metrics
	notifier *webhook.Notifier
}

// newApp loads the registry, starts the renderer and wires the cache,
// metrics and webhook. The caller must Close the returned app.
func newApp(cfg *config.Config) (*app, error) {
	reg, err := retailer.Load(cfg.Retailers.File)
	if err != nil {
		return nil, fmt.Errorf("load retailers: %w", err)
	}
	slog.Info("retailers loaded", "stores", reg.Names(), "file", cfg.Retailers.File)

	launcher, err := newLauncher(cfg)
	if err != nil {
		return nil, fmt.Errorf("start %s renderer: %w", cfg.Browser.Renderer, err)
	}

	a := &app{
		metrics:  scraper.NewMetrics(),
		notifier: webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret),
	}
	opts := []scraper.Option{
		scraper.WithCache(cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)),
		scraper.WithMetrics(a.metrics),
	}
	if a.notifier != nil {
		opts = append(opts, scraper.WithBatchListener(a.notifier))
	}
	a.scraper = scraper.New(launcher, reg, cfg.Scraper, opts...)
	return a, nil
}

// Close waits briefly for pending webhooks, then stops the renderer.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.notifier.Flush(ctx); err != nil {
		slog.Warn("pending webhooks abandoned", "error", err)
	}
	if err := a.scraper.Close(); err != nil {
		slog.Warn("renderer close failed", "error", err)
	}
}
