package main

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipRateLimiter keeps one token bucket per client IP. Only the chat
// endpoint uses it; the generative API behind it is the expensive part.
type ipRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{rate: r, burst: burst}
}

func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	limiter, ok := l.limiters.Load(ip)
	if !ok {
		limiter, _ = l.limiters.LoadOrStore(ip, rate.NewLimiter(l.rate, l.burst))
	}
	return limiter.(*rate.Limiter)
}

func rateLimit(limiter *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.limiterFor(c.ClientIP()).Allow() {
			c.Header("Retry-After", "2")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many chat requests, slow down",
			})
			return
		}
		c.Next()
	}
}
