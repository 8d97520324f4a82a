package store

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/schedule"

	"github.com/google/uuid"
)

// Update applies fn to a copy of category's schedule, installs the result right away
// and writes the whole configuration through to the repository. If the write fails
// the previous snapshot is restored, unless a newer one arrived in the meantime.
func (s *Store) Update(ctx context.Context, category string, fn func(*schedule.CategorySchedule) error) error {
	return s.mutate(ctx, func(next *Snapshot) error {
		cs, ok := next.Schedules[category]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotConfigured, category)
		}
		if err := fn(&cs); err != nil {
			return err
		}
		next.Schedules[category] = cs
		return nil
	})
}

// SetCategoryEnabled turns ordering for a category on or off.
func (s *Store) SetCategoryEnabled(ctx context.Context, category string, enabled bool) error {
	return s.Update(ctx, category, func(cs *schedule.CategorySchedule) error {
		cs.Enabled = enabled
		return nil
	})
}

// SetDay adds or removes one weekday from a category's day set.
func (s *Store) SetDay(ctx context.Context, category string, day schedule.Weekday, enabled bool) error {
	return s.Update(ctx, category, func(cs *schedule.CategorySchedule) error {
		cs.SetDay(day, enabled)
		return nil
	})
}

// SetShiftEnabled toggles shift n (1-based).
func (s *Store) SetShiftEnabled(ctx context.Context, category string, n int, enabled bool) error {
	return s.Update(ctx, category, func(cs *schedule.CategorySchedule) error {
		return cs.SetShiftEnabled(n, enabled)
	})
}

// SetShiftLabel renames shift n (1-based).
func (s *Store) SetShiftLabel(ctx context.Context, category string, n int, label string) error {
	return s.Update(ctx, category, func(cs *schedule.CategorySchedule) error {
		return cs.SetShiftLabel(n, label)
	})
}

// SetShiftTime sets one time field of shift n (1-based).
func (s *Store) SetShiftTime(ctx context.Context, category string, n int, field schedule.ShiftField, value string) error {
	return s.Update(ctx, category, func(cs *schedule.CategorySchedule) error {
		return cs.SetShiftTime(n, field, value)
	})
}

// PutSchedule creates or replaces a category's schedule from its stored form.
// Unknown days and malformed times are rejected.
func (s *Store) PutSchedule(ctx context.Context, category string, raw schedule.RawCategorySchedule) error {
	if err := raw.Check(); err != nil {
		s.metrics.IncAdminWrite("rejected")
		return fmt.Errorf("%s: %w", category, err)
	}
	cs := schedule.Migrate(schedule.RawScheduleMap{category: raw})[category]
	return s.mutate(ctx, func(next *Snapshot) error {
		next.Schedules[category] = cs
		return nil
	})
}

// SetGlobalHours changes the fallback hours.
func (s *Store) SetGlobalHours(ctx context.Context, hours schedule.GlobalHours) error {
	if _, err := schedule.ParseClock(hours.Open); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := schedule.ParseClock(hours.Close); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return s.mutate(ctx, func(next *Snapshot) error {
		next.Hours = hours
		return nil
	})
}

// Replace writes a whole configuration record, as when the seed file changes.
func (s *Store) Replace(ctx context.Context, rec ConfigRecord) error {
	return s.mutate(ctx, func(next *Snapshot) error {
		fresh := s.snapshotFrom(&rec, "admin")
		next.Schedules = fresh.Schedules
		next.Hours = fresh.Hours
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, fn func(next *Snapshot) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := prev.clone()
	if err := fn(next); err != nil {
		s.metrics.IncAdminWrite("rejected")
		return err
	}

	now := time.Now()
	next.Revision = uuid.NewString()
	next.UpdatedAt = now
	next.LoadedAt = now
	next.Source = "admin"
	s.current.Store(next)

	if err := s.repo.SaveConfig(ctx, next.record(s.origin)); err != nil {
		if s.current.CompareAndSwap(next, prev) {
			s.logger.Warn().Err(err).Str("revision", next.Revision).Msg("schedule write failed, change rolled back")
		}
		s.metrics.IncAdminWrite("error")
		return fmt.Errorf("save config: %w", err)
	}

	s.metrics.IncAdminWrite("ok")
	s.logger.Info().Str("revision", next.Revision).Msg("schedule change saved")
	return nil
}
