package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Renderer names accepted by BrowserConfig.Renderer.
const (
	RendererBrowser = "browser"
	RendererHTTP    = "http"
)

// DefaultUserAgent is the fixed desktop Chrome identity presented to retailers.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Retailers RetailersConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"

	// AllowedOrigins is the CORS allow-list. Entries ending in "*" match by
	// prefix, so a lone "*" allows every origin.
	AllowedOrigins []string // default: ["*"]

	// DegradedSessions is the open-session count above which /api/health
	// reports "degraded". Each in-flight batch holds at most one session,
	// so this is the number of concurrent batches tolerated.
	DegradedSessions int // default: 4
}

// BrowserConfig controls the rendering backend.
type BrowserConfig struct {
	// Renderer selects the backend: "browser" (headless Chromium) or
	// "http" (static HTML fetch).
	Renderer string // default: "browser"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional upstream proxy URL for every session.
	Proxy string
}

// ScraperConfig controls per-query behaviour.
type ScraperConfig struct {
	// NavigationTimeout bounds the wait for the initial document parse.
	NavigationTimeout time.Duration // default: 30s

	// ContentTimeout bounds the wait for the first visible listing.
	ContentTimeout time.Duration // default: 30s

	// UserAgent is presented by every session. Fixed, never rotated.
	UserAgent string

	// Stealth injects anti-automation evasions before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types the browser never loads.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockTrackers drops requests to well-known ad and analytics hosts.
	BlockTrackers bool // default: true

	// StoreRPS caps queries per second against a single retailer.
	// Zero disables the limiter.
	StoreRPS float64 // default: 0

	// MaxItems is the largest accepted shopping list.
	MaxItems int // default: 50
}

// RetailersConfig locates the retailer registry.
type RetailersConfig struct {
	// File is an optional YAML registry replacing the built-in retailers.
	File string
}

// RateLimitConfig controls per-client rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per client IP.
	Burst int // default: 5
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	// TTL is how long a result stays fresh. Zero disables caching.
	TTL time.Duration // default: 0

	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000
}

// WebhookConfig controls batch-completed notifications.
type WebhookConfig struct {
	// URL receives a signed POST after every batch. Empty disables it.
	URL string

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envOr("SHELFPRICE_HOST", "0.0.0.0"),
			Port:           envIntOr("SHELFPRICE_PORT", 3000),
			Mode:           envOr("SHELFPRICE_MODE", "release"),
			AllowedOrigins: envSliceOr("SHELFPRICE_ALLOWED_ORIGINS", []string{"*"}),

			DegradedSessions: envIntOr("SHELFPRICE_HEALTH_DEGRADED_SESSIONS", 4),
		},
		Browser: BrowserConfig{
			Renderer:   envOr("SHELFPRICE_RENDERER", RendererBrowser),
			Headless:   envBoolOr("SHELFPRICE_HEADLESS", true),
			NoSandbox:  envBoolOr("SHELFPRICE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SHELFPRICE_BROWSER_BIN"),
			Proxy:      os.Getenv("SHELFPRICE_PROXY"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("SHELFPRICE_NAV_TIMEOUT", 30*time.Second),
			ContentTimeout:    envDurationOr("SHELFPRICE_CONTENT_TIMEOUT", 30*time.Second),
			UserAgent:         envOr("SHELFPRICE_USER_AGENT", DefaultUserAgent),
			Stealth:           envBoolOr("SHELFPRICE_STEALTH", true),
			BlockedResourceTypes: envSliceOr("SHELFPRICE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockTrackers: envBoolOr("SHELFPRICE_BLOCK_TRACKERS", true),
			StoreRPS:      envFloatOr("SHELFPRICE_STORE_RPS", 0),
			MaxItems:      envIntOr("SHELFPRICE_MAX_ITEMS", 50),
		},
		Retailers: RetailersConfig{
			File: os.Getenv("SHELFPRICE_RETAILERS_FILE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SHELFPRICE_RATE_RPS", 1.0),
			Burst:             envIntOr("SHELFPRICE_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("SHELFPRICE_CACHE_TTL", 0),
			MaxEntries: envIntOr("SHELFPRICE_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SHELFPRICE_WEBHOOK_URL"),
			Secret: os.Getenv("SHELFPRICE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SHELFPRICE_LOG_LEVEL", "info"),
			Format: envOr("SHELFPRICE_LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.DegradedSessions <= 0 {
		return fmt.Errorf("health degraded sessions must be positive")
	}
	switch c.Browser.Renderer {
	case RendererBrowser, RendererHTTP:
	default:
		return fmt.Errorf("renderer must be %q or %q, got %q", RendererBrowser, RendererHTTP, c.Browser.Renderer)
	}
	if c.Scraper.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.Scraper.ContentTimeout <= 0 {
		return fmt.Errorf("content timeout must be positive")
	}
	if strings.TrimSpace(c.Scraper.UserAgent) == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Scraper.StoreRPS < 0 {
		return fmt.Errorf("store rps cannot be negative")
	}
	if c.Scraper.MaxItems <= 0 {
		return fmt.Errorf("max items must be positive")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}
	if c.Cache.TTL > 0 && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive when caching is enabled")
	}
	if c.Webhook.URL != "" && !strings.HasPrefix(c.Webhook.URL, "http://") && !strings.HasPrefix(c.Webhook.URL, "https://") {
		return fmt.Errorf("webhook url must be http or https, got %q", c.Webhook.URL)
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
