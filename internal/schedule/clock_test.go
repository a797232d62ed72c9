package schedule

import (
	"testing"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

func TestInWindows_HalfOpen(t *testing.T) {
	windows := []model.ClockWindow{{Start: "09:00", End: "12:00"}}

	if !InWindows(9, 0, windows) {
		t.Fatalf("expected 09:00 to be inside [09:00,12:00)")
	}
	if !InWindows(11, 59, windows) {
		t.Fatalf("expected 11:59 to be inside [09:00,12:00)")
	}
	if InWindows(12, 0, windows) {
		t.Fatalf("expected 12:00 to be outside [09:00,12:00): end is exclusive")
	}
	if InWindows(8, 59, windows) {
		t.Fatalf("expected 08:59 to be outside [09:00,12:00)")
	}
}

func TestInWindows_EmptyAndUnsorted(t *testing.T) {
	if InWindows(10, 0, nil) {
		t.Fatalf("expected no match against an empty window list")
	}

	// Unsorted, overlapping windows must still any-match correctly.
	windows := []model.ClockWindow{
		{Start: "14:00", End: "15:00"},
		{Start: "08:30", End: "10:30"},
		{Start: "09:00", End: "11:00"},
	}
	if !InWindows(10, 45, windows) {
		t.Fatalf("expected 10:45 to match the 09:00-11:00 window")
	}
	if InWindows(13, 0, windows) {
		t.Fatalf("expected 13:00 to match no window")
	}
}

func TestInWindows_SkipsMalformed(t *testing.T) {
	windows := []model.ClockWindow{
		{Start: "garbage", End: "12:00"},
		{Start: "09:00", End: "10:00"},
	}
	if !InWindows(9, 30, windows) {
		t.Fatalf("expected the well-formed window to still match")
	}
	if InWindows(11, 0, windows) {
		t.Fatalf("malformed window must not match anything")
	}
}

func TestInBusyTimes_HalfOpen(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	busy := []model.BusyInterval{
		{
			Start: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	}

	if !InBusyTimes(day, 10, 0, busy) {
		t.Fatalf("expected 10:00 to be busy")
	}
	if !InBusyTimes(day, 10, 29, busy) {
		t.Fatalf("expected 10:29 to be busy")
	}
	if InBusyTimes(day, 10, 30, busy) {
		t.Fatalf("expected 10:30 to be free: interval end is exclusive")
	}
	if InBusyTimes(day, 9, 59, busy) {
		t.Fatalf("expected 09:59 to be free")
	}
}

func TestInBusyTimes_OtherDay(t *testing.T) {
	day := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	busy := []model.BusyInterval{
		{
			Start: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
		},
	}
	if InBusyTimes(day, 10, 30, busy) {
		t.Fatalf("busy interval on the 15th must not mark the 16th busy")
	}
}

func TestParseClock(t *testing.T) {
	n, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if n != 9*60+30 {
		t.Fatalf("expected 570 minutes, got %d", n)
	}

	for _, bad := range []string{"", "9", "24:00", "12:60", "aa:bb"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestFormatClockAndSlotLabel(t *testing.T) {
	if got := FormatClock(9*60 + 5); got != "09:05" {
		t.Fatalf("FormatClock: got %q", got)
	}
	if got := SlotLabel(9); got != "09:00" {
		t.Fatalf("SlotLabel must zero-pad: got %q", got)
	}
	if got := SlotLabel(14); got != "14:00" {
		t.Fatalf("SlotLabel: got %q", got)
	}
}
