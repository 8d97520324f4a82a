package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

var (
	once sync.Once

	scheduleReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_reloads_total",
			Help:      "Count of schedule snapshot loads by source and result.",
		},
		[]string{"source", "result"},
	)

	adminWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_admin_writes_total",
			Help:      "Count of admin schedule changes by result.",
		},
		[]string{"result"},
	)

	realtimeActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schedule_realtime_active",
			Help:      "1 while configuration changes are being pushed to this process.",
		},
	)

	categoryAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_available",
			Help:      "1 while the category accepts orders.",
		},
		[]string{"category"},
	)

	categoryTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_transitions_total",
			Help:      "Count of categories opening or closing for orders.",
		},
		[]string{"category", "state"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			scheduleReloads,
			adminWrites,
			realtimeActive,
			categoryAvailable,
			categoryTransitions,
			httpRequests,
		)
	})
}

// Recorder implements the store and monitor metric sinks on the package collectors.
type Recorder struct{}

func (Recorder) IncReload(source, result string) {
	scheduleReloads.WithLabelValues(source, result).Inc()
}

func (Recorder) IncAdminWrite(result string) {
	adminWrites.WithLabelValues(result).Inc()
}

func (Recorder) SetRealtimeActive(active bool) {
	realtimeActive.Set(boolToFloat(active))
}

func (Recorder) SetCategoryAvailable(category string, available bool) {
	categoryAvailable.WithLabelValues(category).Set(boolToFloat(available))
}

func (Recorder) IncTransition(category string, open bool) {
	state := "closed"
	if open {
		state = "open"
	}
	categoryTransitions.WithLabelValues(category, state).Inc()
}

// IncHTTP counts a request to endpoint.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
