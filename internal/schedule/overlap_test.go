package schedule

import (
	"testing"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

func member(userID string, days ...model.DayAvailability) model.TeamMemberAvailability {
	return model.TeamMemberAvailability{
		UserID:       userID,
		User:         model.MemberInfo{Name: userID},
		Availability: days,
	}
}

func TestCommonWindows_Intersection(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []model.TeamMemberAvailability{
		member("alice", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "09:00", End: "17:00"}},
		}),
		member("bob", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "11:00", End: "19:00"}},
		}),
	}

	got := CommonWindows(day, members)
	if len(got) != 1 {
		t.Fatalf("expected one common window, got %v", got)
	}
	if got[0].Start != "11:00" || got[0].End != "17:00" {
		t.Fatalf("expected 11:00-17:00, got %s-%s", got[0].Start, got[0].End)
	}
}

func TestCommonWindows_BusyCarvesOut(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []model.TeamMemberAvailability{
		member("alice", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "09:00", End: "12:00"}},
			BusyTimes: []model.BusyInterval{{
				Start: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			}},
		}),
		member("bob", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "09:00", End: "12:00"}},
		}),
	}

	got := CommonWindows(day, members)
	if len(got) != 2 {
		t.Fatalf("expected busy time to split the window in two, got %v", got)
	}
	if got[0].Start != "09:00" || got[0].End != "10:00" {
		t.Fatalf("expected 09:00-10:00 first, got %s-%s", got[0].Start, got[0].End)
	}
	if got[1].Start != "10:30" || got[1].End != "12:00" {
		t.Fatalf("expected 10:30-12:00 second, got %s-%s", got[1].Start, got[1].End)
	}
}

func TestCommonWindows_MissingMemberEntry(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []model.TeamMemberAvailability{
		member("alice", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "09:00", End: "17:00"}},
		}),
		member("bob"), // no entry for the date
	}
	if got := CommonWindows(day, members); got != nil {
		t.Fatalf("a member without an entry must collapse the overlap, got %v", got)
	}
}

func TestCommonWindows_DisjointMembers(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []model.TeamMemberAvailability{
		member("alice", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "09:00", End: "12:00"}},
		}),
		member("bob", model.DayAvailability{
			Date:    "2024-01-15",
			Windows: []model.ClockWindow{{Start: "13:00", End: "17:00"}},
		}),
	}
	if got := CommonWindows(day, members); got != nil {
		t.Fatalf("disjoint availability must yield no overlap, got %v", got)
	}
}

func TestCommonWindows_EmptyTeam(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := CommonWindows(day, nil); got != nil {
		t.Fatalf("an empty team has no common windows, got %v", got)
	}
}

func TestEffectiveFree_MergesAndSubtracts(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	entry := model.DayAvailability{
		Date: "2024-01-15",
		// Overlapping declared windows should merge to 09:00-13:00.
		Windows: []model.ClockWindow{
			{Start: "09:00", End: "11:00"},
			{Start: "10:00", End: "13:00"},
		},
		BusyTimes: []model.BusyInterval{
			// Runs off the front of the merged window.
			{
				Start: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
			},
		},
	}

	free := EffectiveFree(day, entry)
	if len(free) != 1 {
		t.Fatalf("expected one free span, got %v", free)
	}
	if free[0].start != 9*60+30 || free[0].end != 13*60 {
		t.Fatalf("expected 09:30-13:00, got %s-%s", FormatClock(free[0].start), FormatClock(free[0].end))
	}
}

func TestEffectiveFree_MultiDayBusyClips(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	entry := model.DayAvailability{
		Date:    "2024-01-15",
		Windows: []model.ClockWindow{{Start: "06:00", End: "12:00"}},
		BusyTimes: []model.BusyInterval{
			// Overnight interval ending 08:00 this day.
			{
				Start: time.Date(2024, 1, 14, 20, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	free := EffectiveFree(day, entry)
	if len(free) != 1 {
		t.Fatalf("expected one free span, got %v", free)
	}
	if free[0].start != 8*60 || free[0].end != 12*60 {
		t.Fatalf("expected 08:00-12:00, got %s-%s", FormatClock(free[0].start), FormatClock(free[0].end))
	}
}
