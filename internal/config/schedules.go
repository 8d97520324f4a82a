package config

import (
	"fmt"
	"os"
	"sort"

	"storefront/internal/schedule"
	"storefront/internal/store"

	"gopkg.in/yaml.v3"
)

// LoadSchedules reads a schedule seed file: the configuration used when the
// database holds none, and the source of file-driven updates.
//
// Malformed times and unknown day names are rejected. Shifts whose bounds are out
// of order are accepted and returned as issues.
func LoadSchedules(path string) (*store.ConfigRecord, []schedule.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read schedules: %w", err)
	}

	var rec store.ConfigRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, nil, fmt.Errorf("parse schedules: %w", err)
	}

	if err := ValidateSchedules(&rec); err != nil {
		return nil, nil, fmt.Errorf("validate schedules: %w", err)
	}

	return &rec, schedule.Validate(schedule.Migrate(rec.CategorySchedules)), nil
}

// ValidateSchedules checks a seed record for values the evaluator cannot compare.
func ValidateSchedules(rec *store.ConfigRecord) error {
	if len(rec.CategorySchedules) == 0 {
		return fmt.Errorf("no categories defined")
	}
	if err := validateClock("open", rec.Open, true); err != nil {
		return err
	}
	if err := validateClock("close", rec.Close, true); err != nil {
		return err
	}

	names := make([]string, 0, len(rec.CategorySchedules))
	for name := range rec.CategorySchedules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		row := rec.CategorySchedules[name]
		if name == "" {
			return fmt.Errorf("category name is required")
		}
		if err := row.Check(); err != nil {
			return fmt.Errorf("%s.%w", name, err)
		}
	}
	return nil
}

func validateClock(field, value string, required bool) error {
	if value == "" && !required {
		return nil
	}
	if !schedule.IsClock(value) {
		return fmt.Errorf("%s: invalid format '%s', expected HH:MM", field, value)
	}
	return nil
}
