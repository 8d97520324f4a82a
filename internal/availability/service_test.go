package availability

import (
	"sync"
	"testing"
	"time"

	"storefront/internal/schedule"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// at returns a clock on the given date in October 2026 (the 16th is a Friday).
func at(t *testing.T, day int, hhmm string) *fakeClock {
	t.Helper()
	return &fakeClock{now: on(t, day, hhmm)}
}

func on(t *testing.T, day int, hhmm string) time.Time {
	t.Helper()
	clock, err := time.Parse(schedule.ClockLayout, hhmm)
	require.NoError(t, err)
	return time.Date(2026, time.October, day, clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}

const (
	friday = 16
	monday = 19
)

func newService(t *testing.T, clock Clock, opts ...store.Option) *Service {
	t.Helper()
	require.Equal(t, time.Friday, on(t, friday, "00:00").Weekday())
	return NewService(store.New(nil, nil, opts...), clock, nil, nil)
}

func TestService_IsCategoryAvailable(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		at       string
		category string
		want     bool
	}{
		{"weekend-only category on monday", monday, "20:00", "hamburguesas", false},
		{"before evening shift", friday, "18:30", "hamburguesas", false},
		{"inside evening shift", friday, "20:00", "hamburguesas", true},
		{"shift start is inclusive", friday, "19:00", "hamburguesas", true},
		{"shift end is inclusive", friday, "21:00", "hamburguesas", true},
		{"after shift end", friday, "21:01", "hamburguesas", false},
		{"between two shifts", friday, "15:00", "empanadas", false},
		{"midday shift", monday, "12:00", "empanadas", true},
		{"not configured", friday, "20:00", "sushi", false},
		{"always available", monday, "03:00", "bebidas", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, at(t, tt.day, tt.at))
			assert.Equal(t, tt.want, svc.IsCategoryAvailable(tt.category))
		})
	}
}

func TestService_AvailableMainCategories(t *testing.T) {
	svc := newService(t, at(t, monday, "12:00"))
	assert.Equal(t, []string{"empanadas", "pizzas"}, svc.AvailableMainCategories())

	svc = newService(t, at(t, friday, "20:00"))
	assert.Equal(t, []string{"empanadas", "hamburguesas", "pizzas"}, svc.AvailableMainCategories())

	svc = newService(t, at(t, friday, "23:30"))
	assert.Empty(t, svc.AvailableMainCategories())
}

func TestService_UnavailabilityInfo(t *testing.T) {
	t.Run("wrong day", func(t *testing.T) {
		info := newService(t, at(t, monday, "20:00")).UnavailabilityInfo("hamburguesas")
		assert.True(t, info.WrongDay)
		assert.False(t, info.WrongTime)
		assert.False(t, info.Available)
		assert.Equal(t, "Disponible solo los viernes, sábados y domingos.", info.Message)
	})

	t.Run("wrong time before the shift", func(t *testing.T) {
		info := newService(t, at(t, friday, "18:30")).UnavailabilityInfo("hamburguesas")
		assert.False(t, info.WrongDay)
		assert.True(t, info.WrongTime)
		assert.Equal(t, "Disponible desde las 19:00 hasta las 21:00.", info.Message)
	})

	t.Run("wrong time after the last shift", func(t *testing.T) {
		info := newService(t, at(t, friday, "22:00")).UnavailabilityInfo("hamburguesas")
		assert.True(t, info.WrongTime)
		assert.Equal(t, "Fuera de horario. Vuelve a estar disponible desde las 19:00.", info.Message)
	})

	t.Run("available", func(t *testing.T) {
		info := newService(t, at(t, friday, "20:00")).UnavailabilityInfo("hamburguesas")
		assert.Equal(t, Info{Available: true}, info)
	})

	t.Run("not configured", func(t *testing.T) {
		info := newService(t, at(t, friday, "20:00")).UnavailabilityInfo("sushi")
		assert.True(t, info.NotConfigured)
		assert.False(t, info.WrongDay)
		assert.False(t, info.WrongTime)
		assert.NotEmpty(t, info.Message)
	})

	t.Run("disabled", func(t *testing.T) {
		rec := store.DefaultRecord()
		row := rec.CategorySchedules["pizzas"]
		row.Enabled = false
		rec.CategorySchedules["pizzas"] = row

		info := newService(t, at(t, friday, "20:00"), store.WithSeed(rec)).UnavailabilityInfo("pizzas")
		assert.True(t, info.Disabled)
		assert.False(t, info.NotConfigured)
		assert.False(t, info.WrongDay)
		assert.False(t, info.WrongTime)
	})
}

func TestService_EffectiveWindowAndSlots(t *testing.T) {
	svc := newService(t, at(t, friday, "18:00"))

	w := svc.EffectiveWindow([]string{"hamburguesas", "pizzas", "bebidas", "pizzas"})
	assert.Equal(t, "19:00", w.Start)
	assert.Equal(t, "21:30", w.End)
	assert.Equal(t, "hamburguesas", w.RestrictiveCategory)
	assert.Equal(t, []string{"hamburguesas", "pizzas"}, w.Categories)

	assert.Equal(t, []string{"19:00", "19:30", "20:00", "20:30", "21:00", "21:30"}, svc.DeliverySlots(w))

	svc.WithSlotStep(time.Hour)
	assert.Equal(t, []string{"19:00", "20:00", "21:00"}, svc.DeliverySlots(w))

	drinks := svc.EffectiveWindow([]string{"bebidas"})
	assert.Equal(t, "11:00", drinks.Start)
	assert.Equal(t, "23:00", drinks.End)
	assert.Empty(t, drinks.RestrictiveCategory)
}

func TestService_DeliverySlotsEmptyWindow(t *testing.T) {
	svc := newService(t, at(t, friday, "18:00"))

	assert.Nil(t, svc.DeliverySlots(schedule.EffectiveWindow{Start: "22:00", End: "21:00"}))
	assert.Nil(t, svc.DeliverySlots(schedule.EffectiveWindow{}))
	assert.Nil(t, svc.DeliverySlots(schedule.EffectiveWindow{Start: "7:00", End: "9:00"}))
}

func TestService_NextAvailable(t *testing.T) {
	svc := newService(t, at(t, friday, "15:00"))
	next, ok := svc.NextAvailable("empanadas")
	require.True(t, ok)
	assert.False(t, next.NextDay)
	assert.Equal(t, "19:30", next.Shift.OrderStart)

	svc = newService(t, at(t, friday, "23:00"))
	next, ok = svc.NextAvailable("empanadas")
	require.True(t, ok)
	assert.True(t, next.NextDay)
	assert.Equal(t, "11:00", next.Shift.OrderStart)

	_, ok = svc.NextAvailable("sushi")
	assert.False(t, ok)
}

func TestService_NextAvailableOnClosedDay(t *testing.T) {
	// Burgers sell on weekends only; their shift still lies ahead on the clock.
	svc := newService(t, at(t, monday, "09:00"))
	next, ok := svc.NextAvailable("hamburguesas")
	require.True(t, ok)
	assert.True(t, next.NextDay)
	assert.Equal(t, "19:00", next.Shift.OrderStart)

	var burgers Status
	for _, st := range svc.Statuses() {
		if st.Category == "hamburguesas" {
			burgers = st
		}
	}
	assert.Equal(t, schedule.ReasonWrongDay, burgers.Reason)
	require.NotNil(t, burgers.Next)
	assert.True(t, burgers.Next.NextDay)
}

func TestService_Statuses(t *testing.T) {
	statuses := newService(t, at(t, friday, "22:00")).Statuses()

	names := make([]string, 0, len(statuses))
	byName := make(map[string]Status)
	for _, st := range statuses {
		names = append(names, st.Category)
		byName[st.Category] = st
	}
	assert.Equal(t, []string{"bebidas", "empanadas", "hamburguesas", "pizzas", "postres"}, names)

	assert.True(t, byName["pizzas"].Available)
	assert.Nil(t, byName["pizzas"].Next)

	burgers := byName["hamburguesas"]
	assert.False(t, burgers.Available)
	assert.Equal(t, schedule.ReasonWrongTime, burgers.Reason)
	require.NotNil(t, burgers.Next)
	assert.True(t, burgers.Next.NextDay)

	assert.True(t, byName["bebidas"].AlwaysAvailable)
	assert.False(t, byName["empanadas"].AlwaysAvailable)
}
