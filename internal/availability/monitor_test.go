package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu          sync.Mutex
	available   map[string]bool
	transitions []string
	realtime    []bool
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{available: make(map[string]bool)}
}

func (m *recordingMetrics) SetCategoryAvailable(category string, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available[category] = available
}

func (m *recordingMetrics) IncTransition(category string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := "closed"
	if open {
		state = "open"
	}
	m.transitions = append(m.transitions, category+":"+state)
}

func (m *recordingMetrics) SetRealtimeActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realtime = append(m.realtime, active)
}

type realtimeFlag struct {
	mu sync.Mutex
	up bool
}

func (r *realtimeFlag) RealtimeActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.up
}

func (r *realtimeFlag) set(up bool) {
	r.mu.Lock()
	r.up = up
	r.mu.Unlock()
}

func TestMonitor_CheckReportsTransitions(t *testing.T) {
	clock := at(t, friday, "18:59")
	metrics := newRecordingMetrics()
	rt := &realtimeFlag{up: true}
	mon := NewMonitor(newService(t, clock), rt, metrics, time.Minute, nil)

	assert.Empty(t, mon.Check())
	assert.False(t, metrics.available["hamburguesas"])
	assert.True(t, metrics.available["pizzas"])

	clock.Set(on(t, friday, "19:00"))
	assert.Equal(t, map[string]bool{"hamburguesas": true}, mon.Check())

	clock.Set(on(t, friday, "19:01"))
	assert.Empty(t, mon.Check())

	clock.Set(on(t, friday, "21:01"))
	rt.set(false)
	assert.Equal(t, map[string]bool{"empanadas": true, "hamburguesas": false}, mon.Check())

	assert.Equal(t, []string{"hamburguesas:open", "empanadas:open", "hamburguesas:closed"}, metrics.transitions)
	assert.Equal(t, []bool{true, true, true, false}, metrics.realtime)
	assert.False(t, metrics.available["hamburguesas"])
}

func TestMonitor_StartStop(t *testing.T) {
	mon := NewMonitor(newService(t, at(t, friday, "20:00")), nil, nil, 10*time.Millisecond, nil)

	done := make(chan struct{})
	go func() {
		mon.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		mon.mu.Lock()
		defer mon.mu.Unlock()
		return mon.last != nil
	}, time.Second, 5*time.Millisecond)

	mon.Stop()
	mon.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_StopsOnContextCancel(t *testing.T) {
	mon := NewMonitor(newService(t, at(t, friday, "20:00")), nil, nil, 0, nil)
	assert.Equal(t, time.Minute, mon.interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mon.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
