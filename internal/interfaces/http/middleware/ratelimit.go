package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitConfig holds the request budget per client IP
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Prefix   string
}

// DefaultRateLimitConfig allows 100 requests per minute
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 100,
		Window:   time.Minute,
		Prefix:   "rental:ratelimit",
	}
}

// NewRateLimiter builds a limiter. Counters live in Redis when a client is
// given, so several API instances share one budget, and in memory otherwise.
func NewRateLimiter(cfg RateLimitConfig, client *redis.Client) (*limiter.Limiter, error) {
	defaults := DefaultRateLimitConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = defaults.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaults.Prefix
	}

	rate := limiter.Rate{Period: cfg.Window, Limit: int64(cfg.Requests)}
	opts := limiter.StoreOptions{Prefix: cfg.Prefix, CleanUpInterval: limiter.DefaultCleanUpInterval}

	var store limiter.Store
	if client != nil {
		var err error
		store, err = sredis.NewStoreWithOptions(client, opts)
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	return limiter.New(store, rate), nil
}

// RateLimit returns a rate limiting middleware keyed by client IP.
// A failing store lets the request through.
func RateLimit(l *limiter.Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx, err := l.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("Rate limit store unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				getRequestID(c),
			))
			return
		}
		c.Next()
	}
}
