// Package schedule implements the calendar math behind the team availability
// view: clock-window membership, busy-interval membership, overlapping-window
// computation across members, and the week-grid view model.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

// DateLayout is the calendar-date key used everywhere availability data is
// looked up by day.
const DateLayout = "2006-01-02"

// ParseClock converts "HH:mm" to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:mm".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// SlotLabel renders an hour as the slot-reference time, "HH:00".
func SlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// InWindows reports whether hour:minute falls inside any of the windows.
// Windows are half-open [start, end): a window ending exactly at the query
// time does not match. Malformed windows are skipped. No ordering or
// non-overlap assumption is made about the list.
func InWindows(hour, minute int, windows []model.ClockWindow) bool {
	q := hour*60 + minute
	for _, w := range windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.End)
		if err != nil {
			continue
		}
		if q >= start && q < end {
			return true
		}
	}
	return false
}

// InBusyTimes reports whether the instant formed from day's date plus
// hour:minute (in day's location) falls inside any busy interval. Half-open
// on the interval end, matching InWindows.
func InBusyTimes(day time.Time, hour, minute int, busy []model.BusyInterval) bool {
	instant := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	for _, b := range busy {
		if !instant.Before(b.Start) && instant.Before(b.End) {
			return true
		}
	}
	return false
}
