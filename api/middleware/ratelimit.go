package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/anoixa/memlane/api/common"
	"github.com/anoixa/memlane/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const sweepInterval = time.Minute

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. Addresses come from
// gin's ClientIP, so forwarded headers only count when the engine trusts the proxy.
type RateLimiter struct {
	settings config.RateLimit

	mu       sync.Mutex
	visitors map[string]*visitor

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter and its idle sweeper; call Stop when done
func NewRateLimiter(settings config.RateLimit) *RateLimiter {
	rl := &RateLimiter{
		settings: settings,
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Handler rejects requests over the client's budget with 429
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	retryAfter := "1"
	if rps := rl.settings.RPS; rps > 0 && rps < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / rps)))
	}

	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", retryAfter)
			common.RespondError(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Stop ends the sweeper; safe to call more than once
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) allow(addr string, now time.Time) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[addr]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rate.Limit(rl.settings.RPS), rl.settings.Burst)}
		rl.visitors[addr] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.bucket.AllowN(now, 1)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-rl.done:
			return
		}
	}
}

// sweep drops visitors silent for longer than the idle TTL
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for addr, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.settings.IdleTTL {
			delete(rl.visitors, addr)
		}
	}
}
