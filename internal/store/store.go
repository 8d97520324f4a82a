package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by admin setters for a category missing from the map.
var ErrNotConfigured = errors.New("category not configured")

// Snapshot is one immutable generation of the schedule configuration.
type Snapshot struct {
	Schedules schedule.ScheduleMap
	Hours     schedule.GlobalHours
	Revision  string
	UpdatedAt time.Time
	Source    string
	LoadedAt  time.Time
}

func (s *Snapshot) clone() *Snapshot {
	out := *s
	out.Schedules = s.Schedules.Clone()
	return &out
}

func (s *Snapshot) record(origin string) *ConfigRecord {
	return &ConfigRecord{
		Open:              s.Hours.Open,
		Close:             s.Hours.Close,
		CategorySchedules: s.Schedules.Raw(),
		Revision:          s.Revision,
		Origin:            origin,
		UpdatedAt:         s.UpdatedAt,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithSeed sets the record used when the repository has none. Defaults to DefaultRecord.
func WithSeed(rec *ConfigRecord) Option {
	return func(s *Store) {
		if rec != nil {
			s.seed = rec
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithOrigin sets the identifier stamped on records this process writes.
func WithOrigin(origin string) Option {
	return func(s *Store) {
		s.origin = origin
	}
}

// Store holds the current schedule snapshot. Readers never lock: every change installs
// a new snapshot with a single pointer swap, so a reader sees one generation in full.
// Writers are serialized.
type Store struct {
	repo    Repository
	seed    *ConfigRecord
	logger  *zerolog.Logger
	metrics Metrics
	origin  string

	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex

	subMu sync.Mutex
	sub   Subscription
}

// New creates a store serving the seed configuration until Init is called.
func New(repo Repository, logger *zerolog.Logger, opts ...Option) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Store{
		repo:    repo,
		seed:    DefaultRecord(),
		logger:  logger,
		metrics: noopMetrics{},
		origin:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(s.snapshotFrom(s.seed, "default"))
	return s
}

// Origin returns the identifier stamped on records this process writes.
func (s *Store) Origin() string {
	return s.origin
}

// Init loads the stored configuration. A missing row or a fetch failure leaves the
// seed configuration in place; the returned error is informational and the store
// always holds a usable snapshot afterwards.
func (s *Store) Init(ctx context.Context) error {
	err := s.load(ctx, "startup")
	if err != nil {
		s.logger.Warn().Err(err).Msg("schedule config unavailable, serving defaults")
		s.install(s.seed, "default")
	}
	return err
}

// Refresh re-reads the stored configuration. On failure the current snapshot is kept.
func (s *Store) Refresh(ctx context.Context) error {
	return s.load(ctx, "refresh")
}

func (s *Store) load(ctx context.Context, source string) error {
	rec, err := s.repo.FetchConfig(ctx)
	if err != nil {
		s.metrics.IncReload(source, "error")
		return fmt.Errorf("fetch config: %w", err)
	}
	if rec == nil {
		s.metrics.IncReload(source, "default")
		s.install(s.seed, "default")
		return nil
	}
	s.metrics.IncReload(source, "ok")
	s.install(rec, source)
	return nil
}

// Apply replaces the snapshot with a pushed record. Nothing from the previous
// snapshot survives. Records this process wrote are already installed and are
// skipped, so a late echo cannot overwrite a newer local write.
func (s *Store) Apply(rec ConfigRecord) {
	if rec.Origin != "" && rec.Origin == s.origin {
		s.logger.Debug().Str("revision", rec.Revision).Msg("own schedule push skipped")
		return
	}
	if cur := s.current.Load(); rec.Revision != "" && rec.Revision == cur.Revision {
		s.logger.Debug().Str("revision", rec.Revision).Msg("schedule push already applied")
		return
	}
	s.metrics.IncReload("realtime", "ok")
	s.install(&rec, "realtime")
}

func (s *Store) install(rec *ConfigRecord, source string) {
	snap := s.snapshotFrom(rec, source)
	for _, issue := range schedule.Validate(snap.Schedules) {
		s.logger.Warn().
			Str("category", issue.Category).
			Str("field", issue.Field).
			Msg(issue.Message)
	}
	s.current.Store(snap)
	s.logger.Info().
		Str("source", source).
		Str("revision", snap.Revision).
		Int("categories", len(snap.Schedules)).
		Msg("schedule snapshot installed")
}

func (s *Store) snapshotFrom(rec *ConfigRecord, source string) *Snapshot {
	hours := schedule.GlobalHours{Open: rec.Open, Close: rec.Close}
	if hours.Open == "" || hours.Close == "" {
		hours = schedule.DefaultGlobalHours
	}
	return &Snapshot{
		Schedules: schedule.Migrate(rec.CategorySchedules),
		Hours:     hours,
		Revision:  rec.Revision,
		UpdatedAt: rec.UpdatedAt,
		Source:    source,
		LoadedAt:  time.Now(),
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load().clone()
}

// Schedule returns a copy of one category's schedule.
func (s *Store) Schedule(category string) (schedule.CategorySchedule, bool) {
	cs, ok := s.current.Load().Schedules[category]
	if !ok {
		return schedule.CategorySchedule{}, false
	}
	return cs.Clone(), true
}

// Schedules returns a copy of the whole schedule map.
func (s *Store) Schedules() schedule.ScheduleMap {
	return s.current.Load().Schedules.Clone()
}

// Hours returns the global fallback hours.
func (s *Store) Hours() schedule.GlobalHours {
	return s.current.Load().Hours
}

// Revision returns the revision of the current snapshot.
func (s *Store) Revision() string {
	return s.current.Load().Revision
}

// Record returns the current configuration in stored form.
func (s *Store) Record() ConfigRecord {
	return *s.current.Load().record(s.origin)
}

// Listen attaches a change-notification subscription. Pushed records replace the
// snapshot through Apply.
func (s *Store) Listen(ctx context.Context, sub Subscriber) error {
	subscription, err := sub.Subscribe(ctx, s.Apply)
	if err != nil {
		return fmt.Errorf("subscribe to schedule changes: %w", err)
	}

	s.subMu.Lock()
	prev := s.sub
	s.sub = subscription
	s.subMu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// RealtimeActive reports whether pushed changes are currently being received.
func (s *Store) RealtimeActive() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.sub != nil && s.sub.Active()
}

// Close tears down the change subscription.
func (s *Store) Close() error {
	s.subMu.Lock()
	sub := s.sub
	s.sub = nil
	s.subMu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Close()
}
