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

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time

	reqPerMin int
	burst     int
	ttl       time.Duration
	now       func() time.Time
}

// NewIPRateLimiter allows reqPerMin requests per minute per IP with the given
// burst. Idle IPs are forgotten after ttl.
func NewIPRateLimiter(reqPerMin, burst int, ttl time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
		reqPerMin: reqPerMin,
		burst:     burst,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.ttl {
		rl.sweep(now)
	}

	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = now
		return v.limiter
	}

	rps := float64(rl.reqPerMin) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), rl.burst)
	rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

// sweep drops idle visitors. Caller holds mu.
func (rl *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *IPRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func RateLimitByIP(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too Many Requests",
				"code":    "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
