// Package redisqueue bridges the engine's in-memory queue to an external
// Redis list, demonstrating the split spec.md §4.2 draws between the
// engine's queue (an ordering structure, never durable on its own) and
// durability, which is "the responsibility of any external broker." A
// Bridge publishes enqueued events to a Redis list for crash recovery and
// cross-process fan-out, and separately drains that list back into a
// local queue.Queue on startup or on a subscriber's schedule.
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/otolab/sebas-chan-sub000/event"
	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
	"github.com/otolab/sebas-chan-sub000/queue"
)

// Config controls the Redis connection and list key.
type Config struct {
	Addr     string `mapstructure:"addr" env:"REDIS_ADDR"`
	Password string `mapstructure:"password" env:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"db" env:"REDIS_DB"`
	ListKey  string `mapstructure:"list_key" env:"REDIS_QUEUE_KEY"`
}

// DefaultConfig returns a local-development Redis target.
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379", ListKey: "sebaschan:events"}
}

// wireEvent is the JSON shape persisted to Redis. Unlike the in-memory
// event.Event, it carries no runtime-only state — it is exactly what's
// needed to reconstruct an Event on the receiving side.
type wireEvent struct {
	Kind     event.Kind     `json:"kind"`
	Payload  map[string]any `json:"payload"`
	Priority int            `json:"priority"`
	Attempt  int            `json:"attempt"`
}

// Bridge durably persists events to a Redis list and can replay them back
// into a local queue.Queue.
type Bridge struct {
	client  *redis.Client
	listKey string
	log     *logger.Logger
}

// New opens a Redis client per cfg. It does not attempt a connection;
// failures surface on first use, matching go-redis's lazy-dial client.
func New(cfg Config, log *logger.Logger) *Bridge {
	if cfg.ListKey == "" {
		cfg.ListKey = DefaultConfig().ListKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Bridge{client: client, listKey: cfg.ListKey, log: log}
}

// Ping verifies connectivity, used by health checks that want to report
// the bridge separately from the engine's primary storage.Handle.Ready.
func (b *Bridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Publish durably records ev by pushing it onto the Redis list. It does
// not remove ev from, or otherwise interact with, the caller's in-memory
// queue.Queue — the two are independent views of "events to process."
func (b *Bridge) Publish(ctx context.Context, ev *event.Event) error {
	data, err := json.Marshal(wireEvent{
		Kind:     ev.Kind,
		Payload:  ev.Payload,
		Priority: int(ev.Priority),
		Attempt:  ev.Attempt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "marshal event for redis bridge", err)
	}
	if err := b.client.LPush(ctx, b.listKey, data).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "publish event to redis", err)
	}
	return nil
}

// Drain replays every event currently on the Redis list into q, in the
// order they were published (oldest first), removing each as it's
// consumed. Intended for startup recovery after a crash: anything still
// on the list when the engine last stopped gets re-enqueued before the
// dispatcher starts.
func (b *Bridge) Drain(ctx context.Context, q *queue.Queue) (int, error) {
	count := 0
	for {
		data, err := b.client.RPop(ctx, b.listKey).Bytes()
		if err == redis.Nil {
			return count, nil
		}
		if err != nil {
			return count, pkgerrors.Wrap(pkgerrors.CodeStorageError, "drain redis bridge", err)
		}

		var wev wireEvent
		if err := json.Unmarshal(data, &wev); err != nil {
			if b.log != nil {
				b.log.WithField("error", err).Warn("redis bridge dropped unparseable event")
			}
			continue
		}

		ev, err := event.New(wev.Kind, wev.Payload, event.Priority(wev.Priority))
		if err != nil {
			if b.log != nil {
				b.log.WithField("error", err).Warn("redis bridge dropped event with unknown kind")
			}
			continue
		}
		ev.Attempt = wev.Attempt

		if err := q.Enqueue(ev); err != nil {
			return count, err
		}
		count++
	}
}

// Follow blocks, moving events from the Redis list into q as they arrive,
// using BRPOP so it doesn't spin. It returns when ctx is canceled or the
// Redis connection fails hard enough that retrying is pointless.
func (b *Bridge) Follow(ctx context.Context, q *queue.Queue, pollTimeout time.Duration) error {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		result, err := b.client.BRPop(ctx, pollTimeout, b.listKey).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorageError, "follow redis bridge", err)
		}
		if len(result) != 2 {
			return fmt.Errorf("redis bridge: unexpected BRPOP result shape %v", result)
		}

		var wev wireEvent
		if err := json.Unmarshal([]byte(result[1]), &wev); err != nil {
			if b.log != nil {
				b.log.WithField("error", err).Warn("redis bridge dropped unparseable event")
			}
			continue
		}
		ev, err := event.New(wev.Kind, wev.Payload, event.Priority(wev.Priority))
		if err != nil {
			if b.log != nil {
				b.log.WithField("error", err).Warn("redis bridge dropped event with unknown kind")
			}
			continue
		}
		ev.Attempt = wev.Attempt

		if err := q.Enqueue(ev); err != nil {
			if b.log != nil {
				b.log.WithField("error", err).Warn("redis bridge failed to enqueue drained event")
			}
		}
	}
}

// Close releases the underlying Redis connection pool.
func (b *Bridge) Close() error {
	return b.client.Close()
}
