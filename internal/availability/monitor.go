package availability

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MonitorMetrics receives the periodic availability evaluation.
type MonitorMetrics interface {
	SetCategoryAvailable(category string, available bool)
	IncTransition(category string, open bool)
	SetRealtimeActive(active bool)
}

// RealtimeStatus reports whether configuration pushes are arriving.
type RealtimeStatus interface {
	RealtimeActive() bool
}

// Monitor re-evaluates every category on a fixed interval. Availability depends on
// the clock, so categories open and close without any configuration change.
type Monitor struct {
	service  *Service
	realtime RealtimeStatus
	metrics  MonitorMetrics
	interval time.Duration
	logger   *zerolog.Logger

	mu         sync.Mutex
	last       map[string]bool
	realtimeUp bool
	running    bool
	stopCh     chan struct{}
}

// NewMonitor creates a monitor ticking every interval (one minute when zero).
// realtime and metrics may be nil.
func NewMonitor(service *Service, realtime RealtimeStatus, metrics MonitorMetrics, interval time.Duration, logger *zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Monitor{
		service:  service,
		realtime: realtime,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the monitor loop until ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.logger.Info().Dur("interval", m.interval).Msg("availability monitor started")
	m.Check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("availability monitor stopped by context")
			return
		case <-m.stopCh:
			m.logger.Info().Msg("availability monitor stopped")
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Stop stops the monitor loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.running {
		m.running = false
		close(m.stopCh)
	}
	m.mu.Unlock()
}

// Check evaluates every category once and reports the ones that opened or closed
// since the previous check. It returns the transitions, keyed by category.
func (m *Monitor) Check() map[string]bool {
	statuses := m.service.Statuses()

	m.mu.Lock()
	defer m.mu.Unlock()

	first := m.last == nil
	next := make(map[string]bool, len(statuses))
	changed := make(map[string]bool)
	for _, st := range statuses {
		next[st.Category] = st.Available
		if m.metrics != nil {
			m.metrics.SetCategoryAvailable(st.Category, st.Available)
		}

		prev, seen := m.last[st.Category]
		if first || (seen && prev == st.Available) {
			continue
		}
		changed[st.Category] = st.Available
		if m.metrics != nil {
			m.metrics.IncTransition(st.Category, st.Available)
		}
		event := m.logger.Info().Str("category", st.Category)
		if st.Available {
			event.Msg("category opened for orders")
		} else {
			event.Str("reason", string(st.Reason)).Msg("category closed for orders")
		}
	}
	m.last = next

	if m.realtime != nil {
		up := m.realtime.RealtimeActive()
		if m.metrics != nil {
			m.metrics.SetRealtimeActive(up)
		}
		if !first && m.realtimeUp && !up {
			m.logger.Warn().Msg("realtime schedule updates lost, serving last known schedules")
		}
		m.realtimeUp = up
	}
	return changed
}
