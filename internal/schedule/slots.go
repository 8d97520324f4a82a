package schedule

import (
	"fmt"
	"time"
)

// SlotStep is the default spacing between delivery slots.
const SlotStep = 30 * time.Minute

// DeliverySlots enumerates selectable delivery times in w at SlotStep increments.
func DeliverySlots(w EffectiveWindow) []string {
	slots, err := GenerateSlots(w.Start, w.End, SlotStep)
	if err != nil {
		return nil
	}
	return slots
}

// GenerateSlots returns every time from start stepping by step that is not later
// than end. end itself is included only when it falls on a step boundary.
func GenerateSlots(start, end string, step time.Duration) ([]string, error) {
	if step < time.Minute {
		return nil, fmt.Errorf("slot step must be at least a minute, got %s", step)
	}

	from, err := toMinutes(start)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}
	to, err := toMinutes(end)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}

	stepMinutes := int(step / time.Minute)
	slots := make([]string, 0)
	for cursor := from; cursor <= to; cursor += stepMinutes {
		slots = append(slots, fromMinutes(cursor))
	}
	return slots, nil
}
