package schedule

import (
	"strings"
	"time"
)

// Weekday is a lower-case English day name as stored in category schedules.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Days lists every weekday in week order, Monday first.
var Days = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayByTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf converts Go's weekday to the stored representation.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdayByTime[d]
}

// ParseWeekday accepts a day name in any case.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if d.index() < 0 {
		return "", ErrUnknownDay
	}
	return d, nil
}

func (d Weekday) index() int {
	for i, w := range Days {
		if w == d {
			return i
		}
	}
	return -1
}

// MaxShifts is the number of ordering shifts a category can have per day.
const MaxShifts = 2

// Shift is one ordering window within a day.
type Shift struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Label       string `json:"label" yaml:"label"`
	OrderStart  string `json:"orderStart" yaml:"orderStart"`   // "19:00"
	OrderEnd    string `json:"orderEnd" yaml:"orderEnd"`       // "21:00"
	DeliveryEnd string `json:"deliveryEnd" yaml:"deliveryEnd"` // "21:30"
}

// Contains reports whether at falls within [OrderStart, OrderEnd], both ends inclusive.
func (s Shift) Contains(at string) bool {
	return at >= s.OrderStart && at <= s.OrderEnd
}

// CategorySchedule governs when one product category accepts orders.
type CategorySchedule struct {
	Enabled    bool
	DaysOfWeek []Weekday
	Shifts     []Shift
}

// HasDay reports whether the category opens on day.
func (c *CategorySchedule) HasDay(day Weekday) bool {
	for _, d := range c.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// EnabledShifts returns the enabled shifts in order.
func (c *CategorySchedule) EnabledShifts() []Shift {
	var out []Shift
	for _, s := range c.Shifts {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Summary is the single-window projection of a schedule kept for older consumers.
type Summary struct {
	OrderStart  string `json:"orderStart"`
	OrderEnd    string `json:"orderEnd"`
	DeliveryEnd string `json:"deliveryEnd"`
}

// LegacySummary derives the single-window projection: the first enabled shift's start
// and the last enabled shift's order end and delivery end. ok is false when no shift
// is enabled.
func (c *CategorySchedule) LegacySummary() (Summary, bool) {
	enabled := c.EnabledShifts()
	if len(enabled) == 0 {
		return Summary{}, false
	}
	first, last := enabled[0], enabled[len(enabled)-1]
	return Summary{
		OrderStart:  first.OrderStart,
		OrderEnd:    last.OrderEnd,
		DeliveryEnd: last.DeliveryEnd,
	}, true
}

// Clone returns a deep copy.
func (c CategorySchedule) Clone() CategorySchedule {
	out := CategorySchedule{Enabled: c.Enabled}
	if c.DaysOfWeek != nil {
		out.DaysOfWeek = append([]Weekday(nil), c.DaysOfWeek...)
	}
	if c.Shifts != nil {
		out.Shifts = append([]Shift(nil), c.Shifts...)
	}
	return out
}

// ScheduleMap maps a category key to its schedule. Missing keys are not configured.
type ScheduleMap map[string]CategorySchedule

// Clone returns a deep copy of the map.
func (m ScheduleMap) Clone() ScheduleMap {
	out := make(ScheduleMap, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// GlobalHours is the fallback ordering window for carts without a computable window.
type GlobalHours struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// EffectiveWindow is the ordering window valid for every category of a cart.
type EffectiveWindow struct {
	Start               string   `json:"start"`
	End                 string   `json:"end"`
	Categories          []string `json:"categories"`
	RestrictiveCategory string   `json:"restrictiveCategory,omitempty"`
}

// Empty reports whether the window contains no instant.
func (w EffectiveWindow) Empty() bool {
	return w.Start == "" || w.End == "" || w.Start > w.End
}
