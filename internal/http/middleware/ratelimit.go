// In-memory token-bucket limiting for edge abuse control. Every route passes
// through it; the persistent sliding-window limiter guarding the public
// tracking endpoint (services.TrackingLimiter) is a separate mechanism with
// its own keys and block semantics. This limiter is process-local: a
// horizontally scaled deployment needs a shared store to enforce a global
// limit.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity owning its bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP buckets by authenticated user when AuthRequired has resolved
// one, by client IP otherwise. The webhook and public tracking routes are
// anonymous, so they always bucket by IP. Keys carry a namespace prefix so a
// user id can never collide with an address.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out per-key token buckets on demand. Idle buckets are
// evicted opportunistically during lookups so the visitor map stays bounded
// under churny anonymous traffic. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	ttl   time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  uint64
}

// visitorGCThreshold is how many lookups pass between eviction sweeps.
const visitorGCThreshold = 5000

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst size. A burst below 1 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		ttl:      10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

// getVisitor fetches or creates the bucket for key. The eviction sweep runs
// before the fetch so a stale bucket is dropped even when it is the one being
// asked for.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= visitorGCThreshold {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the per-key bucket, answering 429 with the standard error
// envelope and a Retry-After hint when the bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
