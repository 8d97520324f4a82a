package store

import (
	"context"
	"time"

	"storefront/internal/schedule"
)

// ConfigRecord is the stored store-wide configuration row. It is also the payload of
// change notifications.
type ConfigRecord struct {
	Open              string                  `json:"open" yaml:"open"`
	Close             string                  `json:"close" yaml:"close"`
	CategorySchedules schedule.RawScheduleMap `json:"categorySchedules" yaml:"categorySchedules"`
	Revision          string                  `json:"revision,omitempty" yaml:"-"`
	Origin            string                  `json:"origin,omitempty" yaml:"-"`
	UpdatedAt         time.Time               `json:"updatedAt,omitempty" yaml:"-"`
}

// DefaultRecord returns the built-in configuration used when nothing is stored.
func DefaultRecord() *ConfigRecord {
	return &ConfigRecord{
		Open:              schedule.DefaultGlobalHours.Open,
		Close:             schedule.DefaultGlobalHours.Close,
		CategorySchedules: schedule.DefaultSchedules(),
	}
}

// Repository persists the configuration row.
type Repository interface {
	// FetchConfig returns the stored row, or nil without error when none exists.
	FetchConfig(ctx context.Context) (*ConfigRecord, error)

	// SaveConfig replaces the stored row. Implementations notify subscribers.
	SaveConfig(ctx context.Context, rec *ConfigRecord) error
}

// Subscription is a live change-notification channel.
type Subscription interface {
	// Active reports whether notifications are still being received.
	Active() bool

	// Close tears the subscription down.
	Close() error
}

// Subscriber opens change-notification subscriptions.
type Subscriber interface {
	// Subscribe invokes onChange with every record written after the call returns.
	Subscribe(ctx context.Context, onChange func(ConfigRecord)) (Subscription, error)
}

// Metrics receives store events.
type Metrics interface {
	IncReload(source, result string)
	IncAdminWrite(result string)
}

type noopMetrics struct{}

func (noopMetrics) IncReload(string, string) {}
func (noopMetrics) IncAdminWrite(string) {}
