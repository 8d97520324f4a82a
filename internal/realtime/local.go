package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"storefront/internal/events"
	"storefront/internal/store"

	"github.com/rs/zerolog"
)

// LocalPublisher announces saved configuration on an in-process bus. It serves
// single-instance deployments without Redis.
type LocalPublisher struct {
	bus *events.EventBus
}

// NewLocalPublisher creates a publisher on bus.
func NewLocalPublisher(bus *events.EventBus) *LocalPublisher {
	return &LocalPublisher{bus: bus}
}

// Publish delivers rec to the bus subscribers.
func (p *LocalPublisher) Publish(ctx context.Context, rec *store.ConfigRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode config record: %w", err)
	}
	return p.bus.Publish(events.Event{Type: events.ConfigChanged, Payload: data})
}

// LocalSync delivers configuration changes published on an in-process bus.
type LocalSync struct {
	bus    *events.EventBus
	logger *zerolog.Logger
}

// NewLocalSync creates a subscriber on bus.
func NewLocalSync(bus *events.EventBus, logger *zerolog.Logger) *LocalSync {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LocalSync{bus: bus, logger: logger}
}

// Subscribe calls onChange with every record published until ctx ends or the
// subscription is closed.
func (s *LocalSync) Subscribe(ctx context.Context, onChange func(store.ConfigRecord)) (store.Subscription, error) {
	sub := &localSubscription{done: make(chan struct{})}
	sub.active.Store(true)
	sub.unsubscribe = s.bus.Subscribe(events.ConfigChanged, func(e events.Event) error {
		var rec store.ConfigRecord
		if err := json.Unmarshal(e.Payload, &rec); err != nil {
			s.logger.Error().Err(err).Msg("invalid config change payload")
			return err
		}
		onChange(rec)
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

type localSubscription struct {
	unsubscribe func()
	active      atomic.Bool
	once        sync.Once
	done        chan struct{}
}

func (l *localSubscription) Active() bool {
	return l.active.Load()
}

func (l *localSubscription) Close() error {
	l.once.Do(func() {
		l.active.Store(false)
		l.unsubscribe()
		close(l.done)
	})
	return nil
}
