package schedule

// Reason explains why a category cannot be ordered.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotConfigured Reason = "not_configured"
	ReasonDisabled      Reason = "disabled"
	ReasonWrongDay      Reason = "wrong_day"
	ReasonWrongTime     Reason = "wrong_time"
)

// Decision is the outcome of evaluating one schedule at one instant.
type Decision struct {
	Available bool   `json:"available"`
	Reason    Reason `json:"reason,omitempty"`
}

// Evaluate decides whether a category accepts orders on day at clock time at ("HH:MM").
// A nil schedule means the category is not configured.
func Evaluate(s *CategorySchedule, day Weekday, at string) Decision {
	switch {
	case s == nil:
		return Decision{Reason: ReasonNotConfigured}
	case !s.Enabled:
		return Decision{Reason: ReasonDisabled}
	case !s.HasDay(day):
		return Decision{Reason: ReasonWrongDay}
	}

	for _, shift := range s.Shifts {
		if shift.Enabled && shift.Contains(at) {
			return Decision{Available: true}
		}
	}
	return Decision{Reason: ReasonWrongTime}
}

// IsAvailable reports whether the category accepts orders on day at time at.
func IsAvailable(s *CategorySchedule, day Weekday, at string) bool {
	return Evaluate(s, day, at).Available
}

// Unavailability tells a configured, enabled category apart by the part of its
// schedule that is currently excluding it.
type Unavailability struct {
	WrongDay  bool `json:"wrongDay"`
	WrongTime bool `json:"wrongTime"`
}

// UnavailabilityReason returns which of day or time is excluding the category.
// Both flags are false when the category is available, not configured or disabled.
func UnavailabilityReason(s *CategorySchedule, day Weekday, at string) Unavailability {
	switch Evaluate(s, day, at).Reason {
	case ReasonWrongDay:
		return Unavailability{WrongDay: true}
	case ReasonWrongTime:
		return Unavailability{WrongTime: true}
	default:
		return Unavailability{}
	}
}

// Opening is the next shift that will accept orders.
type Opening struct {
	Shift   Shift `json:"shift"`
	NextDay bool  `json:"nextDay"`
}

// NextAvailable returns the earliest enabled shift that starts after at. When every
// enabled shift has already started it returns the first enabled shift marked NextDay.
//
// NextDay means "a later day": the following weekday is not checked against
// DaysOfWeek and Sunday does not wrap to Monday.
func NextAvailable(s *CategorySchedule, at string) (Opening, bool) {
	if s == nil {
		return Opening{}, false
	}
	enabled := s.EnabledShifts()
	if len(enabled) == 0 {
		return Opening{}, false
	}

	var (
		best  Shift
		found bool
	)
	for _, shift := range enabled {
		if shift.OrderStart <= at {
			continue
		}
		if !found || shift.OrderStart < best.OrderStart {
			best, found = shift, true
		}
	}
	if found {
		return Opening{Shift: best}, true
	}
	return Opening{Shift: enabled[0], NextDay: true}, true
}
