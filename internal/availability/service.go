package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/schedule"

	"github.com/rs/zerolog"
)

// Source is the read side of the schedule store.
type Source interface {
	Schedule(category string) (schedule.CategorySchedule, bool)
	Schedules() schedule.ScheduleMap
	Hours() schedule.GlobalHours
}

// Info describes why a category cannot be ordered right now.
type Info struct {
	Available     bool   `json:"available"`
	WrongDay      bool   `json:"wrongDay"`
	WrongTime     bool   `json:"wrongTime"`
	NotConfigured bool   `json:"notConfigured"`
	Disabled      bool   `json:"disabled"`
	Message       string `json:"message,omitempty"`
}

// Status is the evaluation of one category at one instant.
type Status struct {
	Category        string            `json:"category"`
	Available       bool              `json:"available"`
	Reason          schedule.Reason   `json:"reason,omitempty"`
	AlwaysAvailable bool              `json:"alwaysAvailable"`
	Next            *schedule.Opening `json:"next,omitempty"`
}

// Service answers storefront availability queries against the current schedules.
type Service struct {
	source     Source
	clock      Clock
	aggregator *schedule.Aggregator
	slotStep   time.Duration
	logger     *zerolog.Logger
}

// NewService creates a Service. A nil aggregator uses the default always-available set.
func NewService(source Source, clock Clock, aggregator *schedule.Aggregator, logger *zerolog.Logger) *Service {
	if aggregator == nil {
		aggregator = schedule.NewAggregator(nil)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		source:     source,
		clock:      clock,
		aggregator: aggregator,
		slotStep:   schedule.SlotStep,
		logger:     logger,
	}
}

// WithSlotStep overrides the delivery slot spacing.
func (s *Service) WithSlotStep(step time.Duration) *Service {
	if step >= time.Minute {
		s.slotStep = step
	}
	return s
}

func (s *Service) now() (schedule.Weekday, string) {
	t := s.clock.Now()
	return schedule.WeekdayOf(t.Weekday()), schedule.ClockOf(t)
}

func (s *Service) lookup(category string) *schedule.CategorySchedule {
	cs, ok := s.source.Schedule(category)
	if !ok {
		return nil
	}
	return &cs
}

// IsCategoryAvailable reports whether category accepts orders now.
func (s *Service) IsCategoryAvailable(category string) bool {
	day, at := s.now()
	return schedule.IsAvailable(s.lookup(category), day, at)
}

// AvailableMainCategories lists the configured categories, other than the
// always-available ones, that accept orders now. The result is sorted.
func (s *Service) AvailableMainCategories() []string {
	day, at := s.now()
	schedules := s.source.Schedules()

	out := make([]string, 0, len(schedules))
	for category, cs := range schedules {
		if s.aggregator.IsAlwaysAvailable(category) {
			continue
		}
		if schedule.IsAvailable(&cs, day, at) {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

// UnavailabilityInfo explains the current state of category for display.
func (s *Service) UnavailabilityInfo(category string) Info {
	day, at := s.now()
	cs := s.lookup(category)

	decision := schedule.Evaluate(cs, day, at)
	info := Info{Available: decision.Available}
	switch decision.Reason {
	case schedule.ReasonNotConfigured:
		info.NotConfigured = true
		info.Message = "Esta categoría no está disponible."
	case schedule.ReasonDisabled:
		info.Disabled = true
		info.Message = "Esta categoría no está disponible por el momento."
	case schedule.ReasonWrongDay:
		info.WrongDay = true
		info.Message = wrongDayMessage(cs.DaysOfWeek)
	case schedule.ReasonWrongTime:
		info.WrongTime = true
		info.Message = wrongTimeMessage(cs, at)
	}
	return info
}

// EffectiveWindow merges the ordering windows of the categories in cart.
func (s *Service) EffectiveWindow(cart []string) schedule.EffectiveWindow {
	return s.aggregator.ComputeWindow(cart, s.source.Schedules(), s.source.Hours())
}

// DeliverySlots enumerates the selectable delivery times in w.
func (s *Service) DeliverySlots(w schedule.EffectiveWindow) []string {
	if w.Empty() {
		return nil
	}
	slots, err := schedule.GenerateSlots(w.Start, w.End, s.slotStep)
	if err != nil {
		s.logger.Warn().Err(err).Str("start", w.Start).Str("end", w.End).Msg("cannot enumerate delivery slots")
		return nil
	}
	return slots
}

// NextAvailable returns the next shift that will open for category. On a day the
// category does not sell, the result is always NextDay.
func (s *Service) NextAvailable(category string) (schedule.Opening, bool) {
	day, at := s.now()
	return nextOpening(s.lookup(category), day, at)
}

func nextOpening(cs *schedule.CategorySchedule, day schedule.Weekday, at string) (schedule.Opening, bool) {
	next, ok := schedule.NextAvailable(cs, at)
	if !ok || cs.HasDay(day) {
		return next, ok
	}
	return schedule.Opening{Shift: cs.EnabledShifts()[0], NextDay: true}, true
}

// Statuses evaluates every configured category at the same instant, sorted by name.
func (s *Service) Statuses() []Status {
	day, at := s.now()
	schedules := s.source.Schedules()

	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Status, 0, len(names))
	for _, name := range names {
		cs := schedules[name]
		decision := schedule.Evaluate(&cs, day, at)
		st := Status{
			Category:        name,
			Available:       decision.Available,
			Reason:          decision.Reason,
			AlwaysAvailable: s.aggregator.IsAlwaysAvailable(name),
		}
		if !decision.Available && cs.Enabled {
			if next, ok := nextOpening(&cs, day, at); ok {
				st.Next = &next
			}
		}
		out = append(out, st)
	}
	return out
}

var dayNames = map[schedule.Weekday]string{
	schedule.Monday:    "lunes",
	schedule.Tuesday:   "martes",
	schedule.Wednesday: "miércoles",
	schedule.Thursday:  "jueves",
	schedule.Friday:    "viernes",
	schedule.Saturday:  "sábados",
	schedule.Sunday:    "domingos",
}

func wrongDayMessage(days []schedule.Weekday) string {
	if len(days) == 0 {
		return "Esta categoría no tiene días habilitados."
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, dayNames[d])
	}
	return "Disponible solo los " + joinSpanish(names) + "."
}

func wrongTimeMessage(cs *schedule.CategorySchedule, at string) string {
	next, ok := schedule.NextAvailable(cs, at)
	if !ok {
		return "Esta categoría no tiene turnos habilitados."
	}
	// NextDay does not know which day that is, so the message does not name one.
	if next.NextDay {
		return fmt.Sprintf("Fuera de horario. Vuelve a estar disponible desde las %s.", next.Shift.OrderStart)
	}
	return fmt.Sprintf("Disponible desde las %s hasta las %s.", next.Shift.OrderStart, next.Shift.OrderEnd)
}

func joinSpanish(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " y " + items[len(items)-1]
}
