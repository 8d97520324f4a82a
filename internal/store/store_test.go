package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	rec      *ConfigRecord
	fetchErr error
	saveErr  error
	saved    []ConfigRecord
}

func (m *memRepo) FetchConfig(ctx context.Context) (*ConfigRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if m.rec == nil {
		return nil, nil
	}
	rec := *m.rec
	return &rec, nil
}

func (m *memRepo) SaveConfig(ctx context.Context, rec *ConfigRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec = rec
	m.saved = append(m.saved, *rec)
	return nil
}

type fakeSubscription struct {
	active bool
	closed bool
}

func (f *fakeSubscription) Active() bool { return f.active && !f.closed }
func (f *fakeSubscription) Close() error {
	f.closed = true
	return nil
}

type fakeSubscriber struct {
	onChange func(ConfigRecord)
	sub      *fakeSubscription
	err      error
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, onChange func(ConfigRecord)) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.onChange = onChange
	f.sub = &fakeSubscription{active: true}
	return f.sub, nil
}

func storedRecord() *ConfigRecord {
	return &ConfigRecord{
		Open:  "12:00",
		Close: "22:00",
		CategorySchedules: schedule.RawScheduleMap{
			"hamburguesas": {Enabled: true, DaysOfWeek: []string{"friday"}, OrderStart: "19:00", OrderEnd: "21:00", DeliveryEnd: "21:30"},
			"pizzas":       {Enabled: true, DaysOfWeek: []string{"monday"}, OrderStart: "11:00", OrderEnd: "22:00", DeliveryEnd: "22:00"},
		},
		Revision: "rev-1",
	}
}

func TestStore_InitFromRepository(t *testing.T) {
	s := New(&memRepo{rec: storedRecord()}, nil)
	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, "rev-1", s.Revision())
	assert.Equal(t, schedule.GlobalHours{Open: "12:00", Close: "22:00"}, s.Hours())

	cs, ok := s.Schedule("hamburguesas")
	require.True(t, ok)
	require.Len(t, cs.Shifts, schedule.MaxShifts)
	assert.False(t, cs.Shifts[0].Enabled)
	assert.Equal(t, "19:00", cs.Shifts[1].OrderStart)

	_, ok = s.Schedule("empanadas")
	assert.False(t, ok)
}

func TestStore_InitWithoutStoredRow(t *testing.T) {
	s := New(&memRepo{}, nil)
	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, schedule.DefaultGlobalHours, s.Hours())
	assert.Contains(t, s.Schedules(), "hamburguesas")
	assert.Equal(t, "default", s.Snapshot().Source)
}

func TestStore_InitFetchFailureIsNotFatal(t *testing.T) {
	seed := &ConfigRecord{Open: "10:00", Close: "20:00", CategorySchedules: schedule.RawScheduleMap{
		"tartas": {Enabled: true, DaysOfWeek: []string{"sunday"}, OrderStart: "10:00", OrderEnd: "12:00"},
	}}
	s := New(&memRepo{fetchErr: errors.New("connection refused")}, nil, WithSeed(seed))

	err := s.Init(context.Background())
	assert.Error(t, err)
	assert.Contains(t, s.Schedules(), "tartas")
	assert.Equal(t, "10:00", s.Hours().Open)
}

func TestStore_RefreshKeepsSnapshotOnFailure(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	require.NoError(t, s.Init(context.Background()))

	repo.fetchErr = errors.New("timeout")
	assert.Error(t, s.Refresh(context.Background()))
	assert.Equal(t, "rev-1", s.Revision())

	repo.fetchErr = nil
	rec := storedRecord()
	rec.Revision = "rev-2"
	repo.rec = rec
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, "rev-2", s.Revision())
}

func TestStore_ApplyReplacesWholesale(t *testing.T) {
	s := New(&memRepo{rec: storedRecord()}, nil)
	require.NoError(t, s.Init(context.Background()))

	s.Apply(ConfigRecord{
		Open:  "11:00",
		Close: "23:00",
		CategorySchedules: schedule.RawScheduleMap{
			"empanadas": {Enabled: true, DaysOfWeek: []string{"monday"}, OrderStart: "11:00", OrderEnd: "13:00"},
		},
		Revision: "rev-9",
	})

	all := s.Schedules()
	assert.Len(t, all, 1)
	assert.Contains(t, all, "empanadas")
	assert.NotContains(t, all, "hamburguesas")
	assert.Equal(t, "rev-9", s.Revision())
	assert.Equal(t, "realtime", s.Snapshot().Source)
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	s := New(&memRepo{rec: storedRecord()}, nil)
	require.NoError(t, s.Init(context.Background()))

	cs, _ := s.Schedule("hamburguesas")
	cs.Enabled = false
	cs.Shifts[1].OrderStart = "00:00"

	all := s.Schedules()
	delete(all, "pizzas")

	again, _ := s.Schedule("hamburguesas")
	assert.True(t, again.Enabled)
	assert.Equal(t, "19:00", again.Shifts[1].OrderStart)
	assert.Contains(t, s.Schedules(), "pizzas")
}

func TestStore_AdminWriteThrough(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil, WithOrigin("tab-1"))
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.SetShiftEnabled(ctx, "hamburguesas", 1, true))
	require.NoError(t, s.SetShiftTime(ctx, "hamburguesas", 1, schedule.FieldOrderStart, "12:00"))
	require.NoError(t, s.SetDay(ctx, "hamburguesas", schedule.Saturday, true))

	require.Len(t, repo.saved, 3)
	last := repo.saved[2]
	assert.Equal(t, "tab-1", last.Origin)
	assert.Equal(t, s.Revision(), last.Revision)

	row := last.CategorySchedules["hamburguesas"]
	assert.Equal(t, []string{"friday", "saturday"}, row.DaysOfWeek)
	require.NotNil(t, row.Shifts)
	assert.Equal(t, "12:00", row.Shifts.Shift1.OrderStart)
	// The summary is re-derived from the enabled shifts.
	assert.Equal(t, "12:00", row.OrderStart)
	assert.Equal(t, "21:00", row.OrderEnd)
	assert.Equal(t, "21:30", row.DeliveryEnd)
}

func TestStore_AdminValidation(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	assert.ErrorIs(t, s.SetCategoryEnabled(ctx, "sushi", true), ErrNotConfigured)
	assert.ErrorIs(t, s.SetShiftTime(ctx, "pizzas", 2, schedule.FieldOrderEnd, "7pm"), schedule.ErrInvalidClock)
	assert.ErrorIs(t, s.SetShiftEnabled(ctx, "pizzas", 3, true), schedule.ErrUnknownShift)
	assert.ErrorIs(t, s.SetGlobalHours(ctx, schedule.GlobalHours{Open: "9", Close: "22:00"}), schedule.ErrInvalidClock)
	assert.Empty(t, repo.saved)
	assert.Equal(t, "rev-1", s.Revision())
}

func TestStore_AdminRollbackOnWriteFailure(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	repo.saveErr = errors.New("disk full")
	err := s.SetCategoryEnabled(ctx, "pizzas", false)
	require.Error(t, err)

	cs, _ := s.Schedule("pizzas")
	assert.True(t, cs.Enabled)
	assert.Equal(t, "rev-1", s.Revision())
}

func TestStore_PutScheduleAndHours(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.PutSchedule(ctx, "empanadas", schedule.RawCategorySchedule{
		Enabled: true, DaysOfWeek: []string{"monday"}, OrderStart: "11:00", OrderEnd: "13:00", DeliveryEnd: "13:30",
	}))
	require.NoError(t, s.SetGlobalHours(ctx, schedule.GlobalHours{Open: "10:00", Close: "23:30"}))

	cs, ok := s.Schedule("empanadas")
	require.True(t, ok)
	assert.Equal(t, "13:00", cs.Shifts[1].OrderEnd)
	assert.Equal(t, "10:00", repo.rec.Open)
	assert.Equal(t, "23:30", repo.rec.Close)
}

func TestStore_PutScheduleRejectsMalformedRows(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	err := s.PutSchedule(ctx, "sushi", schedule.RawCategorySchedule{
		Enabled: true, DaysOfWeek: []string{"friday"}, OrderStart: "7pm", OrderEnd: "9pm", DeliveryEnd: "9:30pm",
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidClock)

	err = s.PutSchedule(ctx, "sushi", schedule.RawCategorySchedule{
		Enabled: true, DaysOfWeek: []string{"funday"}, OrderStart: "19:00", OrderEnd: "21:00", DeliveryEnd: "21:30",
	})
	assert.ErrorIs(t, err, schedule.ErrUnknownDay)

	_, ok := s.Schedule("sushi")
	assert.False(t, ok)
	assert.Empty(t, repo.saved)
	assert.Equal(t, "rev-1", s.Revision())
}

func TestStore_ListenAndEcho(t *testing.T) {
	repo := &memRepo{rec: storedRecord()}
	s := New(repo, nil)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))

	assert.False(t, s.RealtimeActive())

	sub := &fakeSubscriber{}
	require.NoError(t, s.Listen(ctx, sub))
	assert.True(t, s.RealtimeActive())

	require.NoError(t, s.SetCategoryEnabled(ctx, "pizzas", false))
	before := s.Snapshot()

	// Our own write echoing back is recognised.
	sub.onChange(repo.saved[0])
	assert.Equal(t, before.LoadedAt, s.Snapshot().LoadedAt)

	// A late echo of an older local write does not undo a newer one.
	require.NoError(t, s.SetCategoryEnabled(ctx, "pizzas", true))
	latest := s.Revision()
	sub.onChange(repo.saved[0])
	assert.Equal(t, latest, s.Revision())
	cs, ok := s.Schedule("pizzas")
	require.True(t, ok)
	assert.True(t, cs.Enabled)
	sub.onChange(repo.saved[1])
	assert.Equal(t, latest, s.Revision())

	// The same revision arriving without an origin is still skipped.
	echo := repo.saved[1]
	echo.Origin = ""
	loadedAt := s.Snapshot().LoadedAt
	sub.onChange(echo)
	assert.Equal(t, loadedAt, s.Snapshot().LoadedAt)

	other := storedRecord()
	other.Revision = "from-other-tab"
	sub.onChange(*other)
	assert.Equal(t, "from-other-tab", s.Revision())

	sub.sub.active = false
	assert.False(t, s.RealtimeActive())
	assert.Equal(t, "from-other-tab", s.Revision())

	require.NoError(t, s.Close())
	assert.True(t, sub.sub.closed)
	assert.False(t, s.RealtimeActive())
}

func TestStore_ListenError(t *testing.T) {
	s := New(&memRepo{}, nil)
	err := s.Listen(context.Background(), &fakeSubscriber{err: errors.New("no redis")})
	assert.Error(t, err)
	assert.False(t, s.RealtimeActive())
}
