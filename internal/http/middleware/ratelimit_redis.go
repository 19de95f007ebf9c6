package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// UseRedis sets the client shared by the Redis backed limiters. With a nil
// client they fall back to the in-process limiter.
func UseRedis(client *redis.Client) {
	redisClient = client
}

// KeyFunc identifies the caller a limit applies to.
type KeyFunc func(c *gin.Context) (string, bool)

func ByIP(c *gin.Context) (string, bool) {
	return c.ClientIP(), true
}

// ByUser keys on the JWT user id; JWT must run first.
func ByUser(c *gin.Context) (string, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	uid, ok := id.(int64)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(uid, 10), true
}

// RedisRateLimit implements a fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: <prefix>:<window_seconds>:<identifier>
// Redis errors fail open so an outage does not take the API down.
func RedisRateLimit(prefix string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	local := LocalRateLimit(prefix, maxRequests, window, key)

	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}

		ident, ok := key(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
			return
		}
		k := prefix + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		val, err := redisClient.Incr(ctx, k).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			redisClient.Expire(ctx, k, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(prefix).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"code":        "rate_limited",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(prefix).Inc()
		c.Next()
	}
}
