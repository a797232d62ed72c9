package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

func TestTeamAvailabilityRequestGuards(t *testing.T) {
	h := &AvailabilityHandler{}

	rec := httptest.NewRecorder()
	h.TeamAvailability(rec, httptest.NewRequest(http.MethodPost, "/api/v1/team/availability", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.TeamAvailability(rec, httptest.NewRequest(http.MethodGet, "/api/v1/team/availability", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing X-Team-Id status = %d, want 400", rec.Code)
	}
}

func TestParseSlotRef(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	start, err := parseSlotRef("2024-01-16", "09:00", loc)
	if err != nil {
		t.Fatalf("parseSlotRef failed: %v", err)
	}
	want := time.Date(2024, 1, 16, 9, 0, 0, 0, loc)
	if !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}

	if _, err := parseSlotRef("01/16/2024", "09:00", loc); err == nil {
		t.Fatal("expected error for wrong date layout")
	}
	if _, err := parseSlotRef("2024-01-16", "9am", loc); err == nil {
		t.Fatal("expected error for wrong clock layout")
	}
}

func TestSlotWithinWindows(t *testing.T) {
	windows := []model.ClockWindow{
		{Start: "09:00", End: "12:00"},
		{Start: "14:00", End: "17:00"},
	}

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"inside first", 9 * 60, 10 * 60, true},
		{"flush against end", 11 * 60, 12 * 60, true},
		{"spills past end", 11*60 + 30, 12*60 + 30, false},
		{"in the gap", 12 * 60, 13 * 60, false},
		{"spans the gap", 11 * 60, 15 * 60, false},
		{"inside second", 14 * 60, 15 * 60, true},
	}
	for _, tc := range cases {
		if got := slotWithinWindows(tc.start, tc.end, windows); got != tc.want {
			t.Errorf("%s: slotWithinWindows(%d, %d) = %v, want %v", tc.name, tc.start, tc.end, got, tc.want)
		}
	}

	if slotWithinWindows(9*60, 10*60, nil) {
		t.Error("no windows should admit no slot")
	}
}

func TestResolveWeekStart(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 1, 18, 15, 30, 0, 0, loc) // Thursday

	got, ok := resolveWeekStart("", now, loc)
	if !ok {
		t.Fatal("blank week_start should resolve")
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("default week start = %v, want %v", got, want)
	}

	// Any day of the week normalizes to its Monday.
	got, ok = resolveWeekStart("2024-01-21", now, loc) // Sunday
	if !ok {
		t.Fatal("valid week_start should resolve")
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, loc); !got.Equal(want) {
		t.Fatalf("normalized week start = %v, want %v", got, want)
	}

	if _, ok := resolveWeekStart("next week", now, loc); ok {
		t.Fatal("garbage week_start should not resolve")
	}
}
