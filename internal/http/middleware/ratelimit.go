package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the per-process limiter table.
const maxTrackedClients = 10000

// LocalRateLimit is the single-instance limiter: a token bucket per caller
// refilled at maxRequests per window with a burst of maxRequests.
func LocalRateLimit(prefix string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	limiters, _ := lru.New(maxTrackedClients)
	var mu sync.Mutex
	every := rate.Every(window / time.Duration(max(1, int64(maxRequests))))

	get := func(ident string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters.Get(ident); ok {
			return l.(*rate.Limiter)
		}
		l := rate.NewLimiter(every, maxRequests)
		limiters.Add(ident, l)
		return l
	}

	return func(c *gin.Context) {
		ident, ok := key(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthorized"})
			return
		}

		if !get(ident).Allow() {
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
