package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenBucket is an in-memory per-key rate limiter.
type TokenBucket struct {
	capacity int
	rate     int
	now      func() time.Time
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates limiter with capacity tokens refilled at perMinute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		now:      time.Now,
		state:    make(map[string]*bucket),
	}
}

// GinMiddleware limits requests per client IP. A non-positive rate disables limiting.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rate <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, slow down."})
			return
		}
		c.Next()
	}
}

// Allow takes one token for key.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
