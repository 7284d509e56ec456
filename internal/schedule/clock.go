package schedule

import (
	"fmt"
	"time"
)

const clockLayout = "15:04:05"

// ParseClock parses "HH:MM:SS" into an offset from local midnight. The input
// must be exact; surrounding whitespace is an error.
func ParseClock(raw string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM:SS): %w", raw, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// ClockOf returns the wall-clock offset of now from its own midnight.
// Built from the fields rather than now.Sub(midnight) so DST days keep their
// face value.
func ClockOf(now time.Time) time.Duration {
	return time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())
}

// TimeRange parses both ends of t. ok is false if either fails.
func (t Task) TimeRange() (start, end time.Duration, ok bool) {
	s, err := ParseClock(t.StartTime)
	if err != nil {
		return 0, 0, false
	}
	e, err := ParseClock(t.EndTime)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}
