package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
)

// limiterIdleTTL is how long an unused per-key limiter is kept.
const limiterIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	perSecond rate.Limit
	burst     int
	now       func() time.Time

	mu       sync.Mutex
	limiters map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		now:       time.Now,
		limiters:  make(map[string]*visitor),
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastGC) > limiterIdleTTL {
		for k, v := range rl.limiters {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastGC = now
	}

	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Handler limits requests per authenticated user, falling back to the client address.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			key = "user:" + claims.UserID
		} else {
			host, _, _ := net.SplitHostPort(r.RemoteAddr)
			key = "ip:" + host
		}

		limiter := rl.get(key)
		if !limiter.Allow() {
			retry := int(math.Ceil(1 / float64(rl.perSecond)))
			response.TooManyRequests(w, "Too many requests, slow down", max(1, retry))
			return
		}
		next.ServeHTTP(w, r)
	})
}
