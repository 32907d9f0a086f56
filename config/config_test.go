package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 4, cfg.Server.DegradedSessions)
	assert.Equal(t, RendererBrowser, cfg.Browser.Renderer)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.ContentTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.Scraper.UserAgent)
	assert.True(t, cfg.Scraper.Stealth)
	assert.Zero(t, cfg.Cache.TTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHELFPRICE_PORT", "8081")
	t.Setenv("SHELFPRICE_RENDERER", "http")
	t.Setenv("SHELFPRICE_NAV_TIMEOUT", "5s")
	t.Setenv("SHELFPRICE_ALLOWED_ORIGINS", "http://localhost:5173, chrome-extension://*")
	t.Setenv("SHELFPRICE_CACHE_TTL", "10m")
	t.Setenv("SHELFPRICE_STORE_RPS", "0.5")
	t.Setenv("SHELFPRICE_WEBHOOK_URL", "https://hooks.example.com/prices")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, RendererHTTP, cfg.Browser.Renderer)
	assert.Equal(t, 5*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "chrome-extension://*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.InDelta(t, 0.5, cfg.Scraper.StoreRPS, 1e-9)
	assert.Equal(t, "https://hooks.example.com/prices", cfg.Webhook.URL)
	require.NoError(t, cfg.Validate())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SHELFPRICE_PORT", "not-a-number")
	t.Setenv("SHELFPRICE_HEADLESS", "maybe")
	t.Setenv("SHELFPRICE_CONTENT_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Scraper.ContentTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero degraded sessions", func(c *Config) { c.Server.DegradedSessions = 0 }},
		{"unknown renderer", func(c *Config) { c.Browser.Renderer = "webkit" }},
		{"zero navigation timeout", func(c *Config) { c.Scraper.NavigationTimeout = 0 }},
		{"zero content timeout", func(c *Config) { c.Scraper.ContentTimeout = 0 }},
		{"blank user agent", func(c *Config) { c.Scraper.UserAgent = "  " }},
		{"negative store rps", func(c *Config) { c.Scraper.StoreRPS = -1 }},
		{"zero max items", func(c *Config) { c.Scraper.MaxItems = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"cache without capacity", func(c *Config) {
			c.Cache.TTL = time.Minute
			c.Cache.MaxEntries = 0
		}},
		{"webhook without scheme", func(c *Config) { c.Webhook.URL = "hooks.example.com/prices" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
