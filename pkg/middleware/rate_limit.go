package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	// Requests allowed per minute for a single client
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
	// Methods that are limited, every method when empty
	Methods []string
}

type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      RateLimiterConfig
}

func (r *rateLimiter) get(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.cfg.RequestsPerMinute)), r.cfg.Burst)
		r.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (r *rateLimiter) cleanup() {
	for {
		time.Sleep(r.cfg.CleanupInterval)

		r.mu.Lock()
		for ip, v := range r.visitors {
			if time.Since(v.lastSeen) > r.cfg.TTL {
				delete(r.visitors, ip)
			}
		}
		r.mu.Unlock()
	}
}

func (r *rateLimiter) limits(method string) bool {
	if len(r.cfg.Methods) == 0 {
		return true
	}

	for _, m := range r.cfg.Methods {
		if m == method {
			return true
		}
	}

	return false
}

// RateLimiterMiddleware limits clients by IP. Every call gets its own set of
// buckets so separate routes don't share a budget
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 5
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}

	r := &rateLimiter{visitors: make(map[string]*visitor), cfg: config}
	go r.cleanup()

	return func(c *gin.Context) {
		if !r.limits(c.Request.Method) {
			c.Next()
			return
		}

		if !r.get(c.ClientIP()).Allow() {
			c.HTML(http.StatusTooManyRequests, "error.html", gin.H{
				"Code":    http.StatusTooManyRequests,
				"Message": "Too many requests. Please wait a minute and try again.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
