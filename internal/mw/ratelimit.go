package mw

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// minLimiterIdle is how long an untouched per-IP limiter is kept at least.
const minLimiterIdle = 10 * time.Minute

// IPRateLimiter stores a rate limiter for each IP address. Limiters idle for
// longer than a full bucket refill are evicted, since a fresh one behaves the same.
type IPRateLimiter struct {
	ips *cache.Cache
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	idle := minLimiterIdle
	if r > 0 && !math.IsInf(float64(r), 1) {
		if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return newIPRateLimiter(r, b, idle)
}

func newIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		ips: cache.New(idle, idle),
		r:   r,
		b:   b,
	}
}

// AddIP creates a rate limiter for an IP address unless another request got there first.
func (i *IPRateLimiter) AddIP(ip string) *rate.Limiter {
	limiter := rate.NewLimiter(i.r, i.b)
	if err := i.ips.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		if existing, found := i.ips.Get(ip); found {
			return existing.(*rate.Limiter)
		}
		i.ips.SetDefault(ip, limiter)
	}
	return limiter
}

// GetLimiter returns the rate limiter for an IP address and pushes back its eviction.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, found := i.ips.Get(ip); found {
		limiter := v.(*rate.Limiter)
		i.ips.SetDefault(ip, limiter)
		return limiter
	}
	return i.AddIP(ip)
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	retryAfter := "1"
	if r > 0 && r < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(r))))
	}
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
