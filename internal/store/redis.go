package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTimeout bounds a single Redis read or write.
const DefaultRedisTimeout = time.Second

// Redis holds the client shared by the event queue and the live roster.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client with timeout on reads and writes and twice that
// for dialing; timeout <= 0 means DefaultRedisTimeout. BRPOP extends its own
// read deadline by the block time, so the queue consumer is unaffected.
func NewRedis(addr string, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = DefaultRedisTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return &Redis{Client: client}
}

// Healthy pings Redis. A nil receiver is unhealthy.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
