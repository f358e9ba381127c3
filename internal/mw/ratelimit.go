package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client's limiter is remembered.
const limiterIdleTTL = 10 * time.Minute

// IPRateLimiter stores a rate limiter for each IP address. Limiters of
// clients that stay idle are evicted.
type IPRateLimiter struct {
	ips *cache.Cache
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: cache.New(limiterIdleTTL, limiterIdleTTL),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the rate limiter for an IP address.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if v, found := i.ips.Get(ip); found {
		limiter := v.(*rate.Limiter)
		i.ips.SetDefault(ip, limiter)
		return limiter
	}
	limiter := rate.NewLimiter(i.r, i.b)
	i.ips.SetDefault(ip, limiter)
	return limiter
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
