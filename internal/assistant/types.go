package assistant

import (
	"fmt"
	"time"
)

// DateRange is a resolved search window for calendar queries.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ClockTime is a wall-clock time of day extracted from free-form input.
type ClockTime struct {
	Hour   int
	Minute int
}

// Valid reports whether the clock time is within a 24-hour day.
func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// String formats the clock time as HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
