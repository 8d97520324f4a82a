package availability

import (
	"fmt"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the store's time zone.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock for the named IANA zone. An empty name uses the
// local zone.
func NewSystemClock(timezone string) (*SystemClock, error) {
	if timezone == "" {
		return &SystemClock{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &SystemClock{loc: loc}, nil
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the zone the clock reports in.
func (c *SystemClock) Location() *time.Location {
	return c.loc
}
