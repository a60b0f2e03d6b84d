package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"geoattend/internal/logger"
)

// DefaultKey is the Redis list carrying attendance events.
const DefaultKey = "attendance:events"

// Message represents work to be processed.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

// NewMessage builds a message with body marshalled as JSON.
func NewMessage(typ string, body any) (Message, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Body: b}, nil
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers. It closes when ctx is done.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultKey
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, redis.Nil) {
					continue
				}
				logger.Warn().Err(err).Str("key", q.key).Msg("queue pop failed")
				time.Sleep(time.Second)
				continue
			}
			if len(res) != 2 {
				continue
			}
			var msg Message
			if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
				logger.Warn().Err(err).Msg("dropping undecodable queue message")
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
