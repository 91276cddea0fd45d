// file: internal/server/middleware/ratelimit.go
// version: 3.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitedCode is the error code sent with a 429.
const RateLimitedCode = "RATE_LIMITED"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped, at most once per idleTTL.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows requestsPerMinute per IP with the given burst.
// Values below 1 are raised to 1.
func NewIPRateLimiter(requestsPerMinute int, burst int) *IPRateLimiter {
	requestsPerMinute = max(requestsPerMinute, 1)
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		every:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    max(burst, 1),
		idleTTL:  15 * time.Minute,
		now:      time.Now,
	}
}

// allow spends a token for ip. When none is left it returns the wait until
// the next one.
func (r *IPRateLimiter) allow(ip string) (bool, time.Duration) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > r.idleTTL {
		for key, v := range r.visitors {
			if now.Sub(v.lastSeen) > r.idleTTL {
				delete(r.visitors, key)
			}
		}
		r.lastSweep = now
	}

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.every, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := v.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// Middleware returns a Gin middleware that enforces the configured limit.
// Rejected requests get a 429 with a Retry-After hint in whole seconds.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, wait := r.allow(ip)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(max(int(math.Ceil(wait.Seconds())), 1)))
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", RateLimitedCode)
			return
		}
		c.Next()
	}
}

// abortWithError writes the same error shape the handlers use.
func abortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":  message,
		"code":   code,
		"status": status,
	})
}
