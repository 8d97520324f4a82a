package schedule

import (
	"fmt"
	"strings"
)

// RawShifts is the stored two-shift object.
type RawShifts struct {
	Shift1 *Shift `json:"shift1,omitempty" yaml:"shift1,omitempty"`
	Shift2 *Shift `json:"shift2,omitempty" yaml:"shift2,omitempty"`
}

// RawCategorySchedule is a stored schedule row. Rows written before shifts existed
// carry only the single window fields and no Shifts object.
type RawCategorySchedule struct {
	Enabled     bool       `json:"enabled" yaml:"enabled"`
	DaysOfWeek  []string   `json:"daysOfWeek" yaml:"daysOfWeek"`
	Shifts      *RawShifts `json:"shifts,omitempty" yaml:"shifts,omitempty"`
	OrderStart  string     `json:"orderStart,omitempty" yaml:"orderStart,omitempty"`
	OrderEnd    string     `json:"orderEnd,omitempty" yaml:"orderEnd,omitempty"`
	DeliveryEnd string     `json:"deliveryEnd,omitempty" yaml:"deliveryEnd,omitempty"`
}

// RawScheduleMap is the stored form of a ScheduleMap.
type RawScheduleMap map[string]RawCategorySchedule

// Migrate normalizes stored rows of either shape into canonical schedules.
//
// A legacy row becomes a disabled midday placeholder shift followed by an enabled
// shift holding the legacy window. Rows that already have shifts keep them, and their
// stored single-window fields are ignored. Day names are lower-cased, de-duplicated
// and sorted into week order; names that are not weekdays are dropped. Every category
// key is kept, including ones nothing reasons about specially.
//
// Migrate(Migrate(x).Raw()) equals Migrate(x).
func Migrate(raw RawScheduleMap) ScheduleMap {
	out := make(ScheduleMap, len(raw))
	for key, entry := range raw {
		out[key] = migrateEntry(entry)
	}
	return out
}

func migrateEntry(e RawCategorySchedule) CategorySchedule {
	cs := CategorySchedule{
		Enabled:    e.Enabled,
		DaysOfWeek: normalizeDays(e.DaysOfWeek),
	}

	if e.Shifts == nil {
		legacy := Shift{
			Enabled:     true,
			Label:       EveningLabel,
			OrderStart:  e.OrderStart,
			OrderEnd:    e.OrderEnd,
			DeliveryEnd: e.DeliveryEnd,
		}
		cs.Shifts = []Shift{DefaultMiddayShift(), legacy}
		return cs
	}

	cs.Shifts = []Shift{derefShift(e.Shifts.Shift1), derefShift(e.Shifts.Shift2)}
	return cs
}

func derefShift(s *Shift) Shift {
	if s == nil {
		return Shift{}
	}
	return *s
}

func normalizeDays(days []string) []Weekday {
	seen := make(map[Weekday]bool, len(days))
	for _, d := range days {
		w, err := ParseWeekday(d)
		if err != nil {
			continue
		}
		seen[w] = true
	}
	out := make([]Weekday, 0, len(seen))
	for _, w := range Days {
		if seen[w] {
			out = append(out, w)
		}
	}
	return out
}

// Raw encodes the schedule in stored form, including a freshly derived single-window
// summary for consumers that predate shifts.
func (c CategorySchedule) Raw() RawCategorySchedule {
	days := make([]string, 0, len(c.DaysOfWeek))
	for _, d := range c.DaysOfWeek {
		days = append(days, string(d))
	}

	shifts := &RawShifts{}
	if len(c.Shifts) > 0 {
		s := c.Shifts[0]
		shifts.Shift1 = &s
	}
	if len(c.Shifts) > 1 {
		s := c.Shifts[1]
		shifts.Shift2 = &s
	}

	summary, _ := c.LegacySummary()
	return RawCategorySchedule{
		Enabled:     c.Enabled,
		DaysOfWeek:  days,
		Shifts:      shifts,
		OrderStart:  summary.OrderStart,
		OrderEnd:    summary.OrderEnd,
		DeliveryEnd: summary.DeliveryEnd,
	}
}

// Raw encodes every category in stored form.
func (m ScheduleMap) Raw() RawScheduleMap {
	out := make(RawScheduleMap, len(m))
	for key, cs := range m {
		out[key] = cs.Raw()
	}
	return out
}

// Issue describes one malformed value found by Validate.
type Issue struct {
	Category string `json:"category"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s.%s: %s", i.Category, i.Field, i.Message)
}

// Validate reports values that would break lexicographic time comparison and shifts
// whose bounds are out of order. Disabled shifts are checked too, since an admin can
// enable them at any time.
func Validate(m ScheduleMap) []Issue {
	var issues []Issue
	for key, cs := range m {
		for i, s := range cs.Shifts {
			prefix := fmt.Sprintf("shift%d", i+1)
			fields := []struct{ name, value string }{
				{"orderStart", s.OrderStart},
				{"orderEnd", s.OrderEnd},
				{"deliveryEnd", s.DeliveryEnd},
			}
			valid := true
			for _, f := range fields {
				if f.value == "" && !s.Enabled {
					continue
				}
				if !IsClock(f.value) {
					valid = false
					issues = append(issues, Issue{
						Category: key,
						Field:    prefix + "." + f.name,
						Message:  fmt.Sprintf("invalid format %q, expected HH:MM", f.value),
					})
				}
			}
			if !valid {
				continue
			}
			if s.OrderStart > s.OrderEnd {
				issues = append(issues, Issue{Category: key, Field: prefix, Message: "orderStart is after orderEnd"})
			}
			if s.DeliveryEnd != "" && s.OrderEnd > s.DeliveryEnd {
				issues = append(issues, Issue{Category: key, Field: prefix, Message: "orderEnd is after deliveryEnd"})
			}
		}
	}
	return issues
}

// Check reports the first value in a stored row the evaluator cannot compare: a day
// that is not a weekday, or a time that is not "HH:MM". Blank times are allowed except
// on enabled shifts. Out-of-order bounds are left to Validate.
func (r RawCategorySchedule) Check() error {
	for i, d := range r.DaysOfWeek {
		if _, err := ParseWeekday(d); err != nil {
			return fmt.Errorf("daysOfWeek[%d]: %w: %q", i, err, d)
		}
	}
	if err := checkTimes("", r.OrderStart, r.OrderEnd, r.DeliveryEnd, false); err != nil {
		return err
	}
	if r.Shifts == nil {
		return nil
	}
	for i, s := range []*Shift{r.Shifts.Shift1, r.Shifts.Shift2} {
		if s == nil {
			continue
		}
		prefix := fmt.Sprintf("shifts.shift%d.", i+1)
		if err := checkTimes(prefix, s.OrderStart, s.OrderEnd, s.DeliveryEnd, s.Enabled); err != nil {
			return err
		}
	}
	return nil
}

func checkTimes(prefix, orderStart, orderEnd, deliveryEnd string, required bool) error {
	for _, f := range []struct {
		field ShiftField
		value string
	}{
		{FieldOrderStart, orderStart},
		{FieldOrderEnd, orderEnd},
		{FieldDeliveryEnd, deliveryEnd},
	} {
		if f.value == "" && !required {
			continue
		}
		if _, err := ParseClock(f.value); err != nil {
			return fmt.Errorf("%s%s: %w", prefix, f.field, err)
		}
	}
	return nil
}

func shiftIndex(n int) (int, error) {
	if n < 1 || n > MaxShifts {
		return 0, fmt.Errorf("%w: %d", ErrUnknownShift, n)
	}
	return n - 1, nil
}

// ShiftField names an editable time field of a shift.
type ShiftField string

const (
	FieldOrderStart  ShiftField = "orderStart"
	FieldOrderEnd    ShiftField = "orderEnd"
	FieldDeliveryEnd ShiftField = "deliveryEnd"
)

// SetShiftTime sets one time field of shift n (1-based). The value must be HH:MM.
func (c *CategorySchedule) SetShiftTime(n int, field ShiftField, value string) error {
	idx, err := shiftIndex(n)
	if err != nil {
		return err
	}
	c.ensureShifts()
	s := &c.Shifts[idx]

	var target *string
	switch ShiftField(strings.TrimSpace(string(field))) {
	case FieldOrderStart:
		target = &s.OrderStart
	case FieldOrderEnd:
		target = &s.OrderEnd
	case FieldDeliveryEnd:
		target = &s.DeliveryEnd
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if _, err := ParseClock(value); err != nil {
		return err
	}
	*target = value
	return nil
}

// SetShiftEnabled toggles shift n (1-based).
func (c *CategorySchedule) SetShiftEnabled(n int, enabled bool) error {
	idx, err := shiftIndex(n)
	if err != nil {
		return err
	}
	c.ensureShifts()
	c.Shifts[idx].Enabled = enabled
	return nil
}

// SetShiftLabel renames shift n (1-based).
func (c *CategorySchedule) SetShiftLabel(n int, label string) error {
	idx, err := shiftIndex(n)
	if err != nil {
		return err
	}
	c.ensureShifts()
	c.Shifts[idx].Label = strings.TrimSpace(label)
	return nil
}

// SetDay adds or removes day from the day set, keeping week order.
func (c *CategorySchedule) SetDay(day Weekday, enabled bool) {
	raw := make([]string, 0, len(c.DaysOfWeek)+1)
	for _, d := range c.DaysOfWeek {
		if d != day {
			raw = append(raw, string(d))
		}
	}
	if enabled {
		raw = append(raw, string(day))
	}
	c.DaysOfWeek = normalizeDays(raw)
}

func (c *CategorySchedule) ensureShifts() {
	for len(c.Shifts) < MaxShifts {
		c.Shifts = append(c.Shifts, Shift{})
	}
}
