// Package cache holds recently scraped results so repeated comparisons of
// the same item do not reopen a rendering session per retailer.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/use-agent/shelfprice/models"
)

// Cache is an expiring LRU of result records. It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, models.ResultRecord]
}

// New creates a Cache holding at most maxEntries records for ttl each.
// It returns nil when ttl is not positive; a nil *Cache is a valid,
// always-missing cache.
func New(maxEntries int, ttl time.Duration) *Cache {
	if ttl <= 0 || maxEntries <= 0 {
		return nil
	}
	return &Cache{lru: expirable.NewLRU[string, models.ResultRecord](maxEntries, nil, ttl)}
}

// Key derives the cache key for a (store, term) pair. Terms are compared
// case-insensitively, matching how listings are matched. Whitespace is
// significant because matching keeps it too.
func Key(store, term string) string {
	h := sha256.New()
	h.Write([]byte(store))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(term)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached record for (store, term). Its Query and echoed
// Name are those of the term it was stored under; see ResultRecord.ForTerm.
func (c *Cache) Get(store, term string) (models.ResultRecord, bool) {
	if c == nil {
		return models.ResultRecord{}, false
	}
	return c.lru.Get(Key(store, term))
}

// Set stores rec for (store, term). Failed queries are never cached so the
// next request retries the retailer.
func (c *Cache) Set(store, term string, rec models.ResultRecord) {
	if c == nil || rec.Outcome() == models.OutcomeError {
		return
	}
	c.lru.Add(Key(store, term), rec)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
