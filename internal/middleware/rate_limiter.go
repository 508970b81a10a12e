package middleware

import (
	"net/http"
	"sync"
	"time"

	"agrosnab/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Mutation rate limiter ─────────────────────────────────────────────────────

// mutEntry tracks stock-mutation attempts per IP within a sliding window.
type mutEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	mutMap   = make(map[string]*mutEntry)
	mutMapMu sync.Mutex
)

// MutationRateLimiter limits write operations to 30 per minute per IP. Every
// mutation turns into spreadsheet API calls, which carry their own quota.
func MutationRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		mutMapMu.Lock()
		entry, exists := mutMap[ip]
		if !exists {
			entry = &mutEntry{}
			mutMap[ip] = entry
		}
		mutMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			// Reset sliding window
			entry.count = 0
			entry.windowEnd = now.Add(time.Minute)
		}

		entry.count++
		if entry.count > 30 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many stock operations, retry in a minute"))
			return
		}
		c.Next()
	}
}

// ── General API rate limiter ──────────────────────────────────────────────────

// rateEntry tracks request counts per IP for the general API limiter.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	apiRateMap   = make(map[string]*rateEntry)
	apiRateMapMu sync.Mutex
)

// RateLimiter returns a general-purpose sliding-window rate limiter.
// Default: 200 requests per minute per IP — adjust limit / window as needed.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		apiRateMapMu.Lock()
		entry, exists := apiRateMap[ip]
		if !exists {
			entry = &rateEntry{}
			apiRateMap[ip] = entry
		}
		apiRateMapMu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(window)
		}

		entry.count++
		if entry.count > limit {
			c.Header("Retry-After", entry.windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired entries from both rate limiter maps to prevent
// memory leaks from accumulating IPs that never return.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		mutMapMu.Lock()
		purgedMut := 0
		for ip, entry := range mutMap {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(mutMap, ip)
				purgedMut++
			}
			entry.mu.Unlock()
		}
		mutMapMu.Unlock()

		apiRateMapMu.Lock()
		purgedAPI := 0
		for ip, entry := range apiRateMap {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(apiRateMap, ip)
				purgedAPI++
			}
			entry.mu.Unlock()
		}
		apiRateMapMu.Unlock()

		if purgedMut > 0 || purgedAPI > 0 {
			log.Debug().
				Int("mutation_entries_purged", purgedMut).
				Int("api_entries_purged", purgedAPI).
				Int("mutation_entries_remaining", len(mutMap)).
				Int("api_entries_remaining", len(apiRateMap)).
				Msg("rate limiter maps purged")
		}
	}
}
