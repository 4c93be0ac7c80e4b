package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/sse"
	"github.com/quiplabs/quip-backend/internal/utils"
)

// SSEBus carries broadcast messages between instances. Each instance
// publishes every message to the bus and runs a forwarder that feeds
// received messages into its local hub, so a subscriber connected to
// any replica sees the full stream for its session.
type SSEBus interface {
	Publish(ctx context.Context, msg sse.Message) error
	StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error
	Close() error
}

type redisSSEBus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

// NewRedisSSEBus connects to the Redis named by REDIS_ADDR. The bus is
// optional; callers that see a missing address should run hub-only.
func NewRedisSSEBus(log *logger.Logger) (SSEBus, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	busLog := log.With("service", "RedisSSEBus")
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", busLog),
		DB:          utils.GetEnvAsInt("REDIS_DB", 0, busLog),
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &redisSSEBus{
		log:     busLog,
		rdb:     rdb,
		channel: utils.GetEnv("REDIS_CHANNEL", "sse", busLog),
	}, nil
}

func (b *redisSSEBus) Publish(ctx context.Context, msg sse.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode bus message: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// StartForwarder subscribes to the bus channel and feeds decoded
// messages to onMsg until ctx ends. It returns once the subscription is
// confirmed, so a Publish after a successful return will be seen.
func (b *redisSSEBus) StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	go b.forward(ctx, sub, onMsg)
	return nil
}

func (b *redisSSEBus) forward(ctx context.Context, sub *redis.PubSub, onMsg func(m sse.Message)) {
	defer sub.Close()
	incoming := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-incoming:
			if !ok || raw == nil {
				b.log.Warn("Bus subscription channel closed")
				return
			}
			var msg sse.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				b.log.Warn("Dropping undecodable bus message", "error", err)
				continue
			}
			onMsg(msg)
		}
	}
}

func (b *redisSSEBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
