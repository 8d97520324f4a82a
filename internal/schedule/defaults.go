package schedule

// Shift labels used by migrated and default schedules.
const (
	MiddayLabel  = "Mediodía"
	EveningLabel = "Noche"
)

// DefaultMiddayShift is the disabled placeholder given to legacy rows so the admin
// can enable a lunch shift later.
func DefaultMiddayShift() Shift {
	return Shift{
		Enabled:     false,
		Label:       MiddayLabel,
		OrderStart:  "11:00",
		OrderEnd:    "13:30",
		DeliveryEnd: "14:00",
	}
}

// DefaultGlobalHours is used when no stored configuration exists.
var DefaultGlobalHours = GlobalHours{Open: "11:00", Close: "23:00"}

// DefaultAlwaysAvailable are the categories excluded from cart window merging.
var DefaultAlwaysAvailable = []string{"bebidas", "postres"}

// DefaultSchedules returns the built-in schedule rows used when the persistence
// layer has nothing stored.
func DefaultSchedules() RawScheduleMap {
	everyDay := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	allDay := func() *RawShifts {
		return &RawShifts{
			Shift1: &Shift{Enabled: true, Label: MiddayLabel, OrderStart: "00:00", OrderEnd: "11:59", DeliveryEnd: "12:00"},
			Shift2: &Shift{Enabled: true, Label: EveningLabel, OrderStart: "12:00", OrderEnd: "23:59", DeliveryEnd: "23:59"},
		}
	}

	return RawScheduleMap{
		"hamburguesas": {
			Enabled:     true,
			DaysOfWeek:  []string{"friday", "saturday", "sunday"},
			OrderStart:  "19:00",
			OrderEnd:    "21:00",
			DeliveryEnd: "21:30",
		},
		"empanadas": {
			Enabled:    true,
			DaysOfWeek: everyDay,
			Shifts: &RawShifts{
				Shift1: &Shift{Enabled: true, Label: MiddayLabel, OrderStart: "11:00", OrderEnd: "13:30", DeliveryEnd: "14:00"},
				Shift2: &Shift{Enabled: true, Label: EveningLabel, OrderStart: "19:30", OrderEnd: "22:30", DeliveryEnd: "23:00"},
			},
		},
		"pizzas": {
			Enabled:    true,
			DaysOfWeek: everyDay,
			Shifts: &RawShifts{
				Shift1: &Shift{Enabled: false, Label: MiddayLabel, OrderStart: "11:00", OrderEnd: "13:30", DeliveryEnd: "14:00"},
				Shift2: &Shift{Enabled: true, Label: EveningLabel, OrderStart: "11:00", OrderEnd: "22:00", DeliveryEnd: "22:30"},
			},
		},
		"bebidas": {Enabled: true, DaysOfWeek: everyDay, Shifts: allDay()},
		"postres": {Enabled: true, DaysOfWeek: everyDay, Shifts: allDay()},
	}
}
