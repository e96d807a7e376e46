package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/response"
)

// RateLimiter is a fixed-window per-user limiter backed by Redis, so every
// instance behind the load balancer shares the same counters.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 10 requests per minute).
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window, now: time.Now}
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// Allow counts one attempt by userID in the current window.
// A non-positive limit allows everything.
func (rl *RateLimiter) Allow(ctx context.Context, userID int) (Decision, error) {
	if rl.limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	now := rl.now()
	window := now.UnixNano() / int64(rl.window)
	key := config.CacheKey.SubmitRateKey(userID, window)

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{Allowed: true, Limit: rl.limit}, err
	}
	if count == 1 {
		rl.rdb.Expire(ctx, key, rl.window)
	}

	d := Decision{Allowed: count <= int64(rl.limit), Limit: rl.limit, Remaining: max(int64(rl.limit)-count, 0)}
	if !d.Allowed {
		d.RetryAfter = time.Duration(window+1)*rl.window - time.Duration(now.UnixNano())
	}
	return d, nil
}

// PerUser returns a Gin middleware that rate-limits by the authenticated user.
// It must run after a JWT middleware. Redis errors let the request through.
func (rl *RateLimiter) PerUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		d, err := rl.Allow(c.Request.Context(), claims.UserID)
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}
		if d.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		}
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
