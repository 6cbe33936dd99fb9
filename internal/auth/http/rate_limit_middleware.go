package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/httputil"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = time.Hour
)

// limiterStore holds one token bucket per key and forgets idle keys.
type limiterStore[K comparable] struct {
	mu       sync.Mutex
	limiters map[K]*limiterEntry
	rps      float64
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLimiterStore[K comparable](ctx context.Context, rps float64, burst int) *limiterStore[K] {
	s := &limiterStore[K]{limiters: make(map[K]*limiterEntry), rps: rps, burst: burst}
	go s.cleanupStale(ctx, limiterCleanupInterval)
	return s
}

func (s *limiterStore[K]) get(key K) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

func (s *limiterStore[K]) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-limiterIdleTimeout)
			s.mu.Lock()
			for key, entry := range s.limiters {
				if entry.lastAccess.Before(threshold) {
					delete(s.limiters, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// reject writes a 429 response with a Retry-After header.
func reject(c *gin.Context, limiter *rate.Limiter, message string) {
	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds()) + 1
	reservation.Cancel()

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, httputil.ErrorResponse{
		Error:   "rate_limit_exceeded",
		Message: message,
	})
	c.Abort()
}

// TokenRateLimitMiddleware limits token requests per client IP. Stale limiters are
// dropped until ctx is cancelled.
func TokenRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[string](ctx, rps, burst)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.get(clientIP)

		if !limiter.Allow() {
			logger.Debug("token rate limit exceeded", slog.String("client_ip", clientIP))
			reject(c, limiter, "Too many token requests from this IP. Please retry later.")
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware limits authenticated requests per user. It must run after
// AuthenticationMiddleware.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[string](ctx, rps, burst)

	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := store.get(principal.UserID.String())
		if !limiter.Allow() {
			logger.Debug("rate limit exceeded", slog.String("user_id", principal.UserID.String()))
			reject(c, limiter, "Too many requests. Please retry later.")
			return
		}
		c.Next()
	}
}
