package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speexify/speexify/internal/pkg/apperrors"
	"golang.org/x/time/rate"
)

// RateLimiter applies a per-client token bucket. Buckets are keyed by client
// IP and evicted after a period of inactivity.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing limit events per second with the
// given burst, and starts the idle-bucket janitor.
func NewRateLimiter(limit rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  5 * time.Minute,
	}
	go rl.cleanup()
	return rl
}

// Middleware rejects requests exceeding the client's bucket with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			HandleAPIError(c, apperrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

func (rl *RateLimiter) cleanup() {
	for range time.Tick(time.Minute) {
		rl.mu.Lock()
		for key, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.idleTTL {
				delete(rl.visitors, key)
			}
		}
		rl.mu.Unlock()
	}
}
