package http

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	floodGuardCleanupInterval = 5 * time.Minute
	floodGuardIdleTTL         = time.Hour
)

// floodGuardStore holds per-client token buckets.
type floodGuardStore struct {
	limiters sync.Map // map[string]*floodGuardEntry
	rps      float64
	burst    int
	now      func() time.Time
}

type floodGuardEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// FloodGuardMiddleware is an in-memory per-IP token bucket placed in front of the verify
// endpoint. It only sheds request bursts; the durable attempt limit is enforced by the
// verification flow for every request that passes.
//
// The cleanup goroutine stops when ctx is cancelled.
//
// Returns:
//   - 429 Too Many Requests with a Retry-After header when the bucket is empty
//   - Continues otherwise
func FloodGuardMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &floodGuardStore{
		rps:   rps,
		burst: burst,
		now:   time.Now,
	}

	go store.cleanupStale(ctx, floodGuardCleanupInterval, floodGuardIdleTTL)

	return func(c *gin.Context) {
		clientID := ClientIdentifier(c.Request)
		limiter := store.getLimiter(clientID)

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(math.Ceil(reservation.Delay().Seconds()))
			reservation.Cancel()
			retryAfter = max(retryAfter, 1)

			logger.Debug("verify flood guard triggered",
				slog.String("client_ip", clientID),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests from this address, try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (s *floodGuardStore) getLimiter(clientID string) *rate.Limiter {
	if val, ok := s.limiters.Load(clientID); ok {
		entry := val.(*floodGuardEntry)
		entry.mu.Lock()
		entry.lastAccess = s.now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &floodGuardEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: s.now(),
	}
	actual, _ := s.limiters.LoadOrStore(clientID, entry)
	return actual.(*floodGuardEntry).limiter
}

// sweep drops buckets idle for longer than ttl.
func (s *floodGuardStore) sweep(ttl time.Duration) {
	threshold := s.now().Add(-ttl)
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*floodGuardEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

func (s *floodGuardStore) cleanupStale(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ttl)
		}
	}
}
