package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"storefront/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the Redis channel carrying configuration changes.
const DefaultChannel = "storefront:config"

// RedisPublisher announces saved configuration on a Redis channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher for channel (DefaultChannel when empty).
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish sends rec to every subscriber of the channel.
func (p *RedisPublisher) Publish(ctx context.Context, rec *store.ConfigRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode config record: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// RedisSync delivers configuration changes received on a Redis channel.
type RedisSync struct {
	rdb     *redis.Client
	channel string
	logger  *zerolog.Logger
}

// NewRedisSync creates a subscriber for channel (DefaultChannel when empty).
func NewRedisSync(rdb *redis.Client, channel string, logger *zerolog.Logger) *RedisSync {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisSync{rdb: rdb, channel: channel, logger: logger}
}

// Subscribe waits for the subscription to be confirmed and then calls onChange with
// every record published on the channel. When the connection drops the subscription
// turns inactive and stays that way; callers fall back to Store.Refresh.
func (s *RedisSync) Subscribe(ctx context.Context, onChange func(store.ConfigRecord)) (store.Subscription, error) {
	ps := s.rdb.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	sub.active.Store(true)
	s.logger.Info().Str("channel", s.channel).Msg("realtime subscription active")

	go sub.run(ctx, onChange, s.logger)
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	active atomic.Bool
	closed atomic.Bool
	once   sync.Once
	done   chan struct{}
}

func (r *redisSubscription) run(ctx context.Context, onChange func(store.ConfigRecord), logger *zerolog.Logger) {
	defer close(r.done)
	defer r.active.Store(false)

	for {
		msg, err := r.ps.ReceiveMessage(ctx)
		if err != nil {
			if r.closed.Load() || ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("realtime subscription dropped, serving last known schedules")
			return
		}

		var rec store.ConfigRecord
		if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
			logger.Error().Err(err).Str("channel", msg.Channel).Msg("invalid config change payload")
			continue
		}
		onChange(rec)
	}
}

// Active reports whether the subscription is still receiving.
func (r *redisSubscription) Active() bool {
	return r.active.Load()
}

// Close unsubscribes and waits for the receive loop to stop.
func (r *redisSubscription) Close() error {
	var err error
	r.once.Do(func() {
		r.closed.Store(true)
		err = r.ps.Close()
		<-r.done
	})
	return err
}
