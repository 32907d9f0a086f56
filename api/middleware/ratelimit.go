package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfprice/config"
	"github.com/use-agent/shelfprice/models"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = time.Hour
)

// clientLimiters hands out one token bucket per client IP.
type clientLimiters struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	lastSeen map[string]time.Time
}

func newClientLimiters(cfg config.RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		buckets:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}
}

func (l *clientLimiters) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[ip] = b
	}
	l.lastSeen[ip] = now
	l.mu.Unlock()
	return b.AllowN(now, 1)
}

// sweep forgets clients not seen since cutoff.
func (l *clientLimiters) sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			delete(l.buckets, ip)
			delete(l.lastSeen, ip)
		}
	}
}

func (l *clientLimiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// retryAfter is the whole seconds until one token is refilled.
func (l *clientLimiters) retryAfter() string {
	secs := math.Ceil(1 / float64(l.rps))
	return strconv.Itoa(int(max(secs, 1)))
}

// RateLimit returns per-client-IP token-bucket rate limiting middleware.
// Idle clients are forgotten by a sweeper that stops when ctx is done.
func RateLimit(ctx context.Context, cfg config.RateLimitConfig) gin.HandlerFunc {
	limiters := newClientLimiters(cfg)

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				limiters.sweep(now.Add(-limiterIdleAfter))
			}
		}
	}()

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", limiters.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "too many comparisons from this client, retry later",
				},
			})
			return
		}
		c.Next()
	}
}
