package schedule

import (
	"testing"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

func TestMondayOf(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), "2024-01-15"}, // a Monday
		{time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), "2024-01-15"},   // Wednesday
		{time.Date(2024, 1, 21, 23, 59, 0, 0, time.UTC), "2024-01-15"}, // Sunday
		{time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), "2024-01-22"},   // next Monday
	}
	for _, c := range cases {
		got := MondayOf(c.in)
		if got.Format(DateLayout) != c.want {
			t.Fatalf("MondayOf(%s): expected %s, got %s", c.in, c.want, got.Format(DateLayout))
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Fatalf("MondayOf must return midnight, got %s", got)
		}
	}
}

func TestWeekDays_SevenContiguousFromMonday(t *testing.T) {
	v := NewWeekView(model.TeamAvailability{}, Options{
		Anchor: time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC), // Thursday
	})

	days := v.WeekDays()
	if days[0].Weekday() != time.Monday {
		t.Fatalf("week must start on Monday, got %s", days[0].Weekday())
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			t.Fatalf("days must be contiguous: %s then %s", days[i-1], days[i])
		}
	}
	if days[0].Format(DateLayout) != "2024-01-15" || days[6].Format(DateLayout) != "2024-01-21" {
		t.Fatalf("unexpected week range %s..%s", days[0].Format(DateLayout), days[6].Format(DateLayout))
	}
}

func TestNavigation_RoundTripAndCallback(t *testing.T) {
	var fired []string
	v := NewWeekView(model.TeamAvailability{}, Options{
		Anchor:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		OnChange: func(d time.Time) { fired = append(fired, d.Format(DateLayout)) },
	})

	start := v.WeekStart()
	v.NextWeek()
	if got := v.WeekStart().Format(DateLayout); got != "2024-01-22" {
		t.Fatalf("expected 2024-01-22 after NextWeek, got %s", got)
	}
	v.PreviousWeek()
	if !v.WeekStart().Equal(start) {
		t.Fatalf("next then previous must round-trip, got %s", v.WeekStart())
	}
	if len(fired) != 2 || fired[0] != "2024-01-22" || fired[1] != "2024-01-15" {
		t.Fatalf("change callback fired wrong: %v", fired)
	}
}

func TestGoToToday(t *testing.T) {
	v := NewWeekView(model.TeamAvailability{}, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	v.NextWeek()
	v.NextWeek()

	now := time.Date(2024, 3, 7, 16, 45, 0, 0, time.UTC) // a Thursday
	v.GoToToday(now)
	if got := v.WeekStart().Format(DateLayout); got != "2024-03-04" {
		t.Fatalf("expected the Monday of now's week, got %s", got)
	}
}

func TestNavigation_Bounds(t *testing.T) {
	v := NewWeekView(model.TeamAvailability{}, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Bounds: Bounds{
			Min: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			Max: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC),
		},
	})

	v.PreviousWeek()
	if got := v.WeekStart().Format(DateLayout); got != "2024-01-08" {
		t.Fatalf("expected clamp to the bound's Monday, got %s", got)
	}
	v.PreviousWeek()
	if got := v.WeekStart().Format(DateLayout); got != "2024-01-08" {
		t.Fatalf("navigation past the lower bound must stick, got %s", got)
	}
	v.NextWeek()
	v.NextWeek()
	v.NextWeek()
	if got := v.WeekStart().Format(DateLayout); got != "2024-01-22" {
		t.Fatalf("navigation past the upper bound must stick, got %s", got)
	}
}

func TestColorAssignment_StableModuloPalette(t *testing.T) {
	members := make([]model.TeamMemberAvailability, 0, 10)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		members = append(members, member(id))
	}
	v := NewWeekView(model.TeamAvailability{Members: members}, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})

	for i, m := range members {
		if v.Color(m.UserID) != ColorFor(i) {
			t.Fatalf("member %d color mismatch", i)
		}
	}
	// Ninth and tenth members wrap onto the first two palette entries.
	if v.Color("i") != ColorFor(0) || v.Color("j") != ColorFor(1) {
		t.Fatalf("palette must wrap at 8 members")
	}
	if v.Color("unknown") != "" {
		t.Fatalf("unknown member must have no color")
	}

	// Same list, same order: identical mapping on a fresh view.
	v2 := NewWeekView(model.TeamAvailability{Members: members}, Options{
		Anchor: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
	})
	for _, m := range members {
		if v.Color(m.UserID) != v2.Color(m.UserID) {
			t.Fatalf("color mapping must be deterministic for %s", m.UserID)
		}
	}
}

func TestDuplicateDayEntry_FirstWins(t *testing.T) {
	m := member("alice",
		model.DayAvailability{Date: "2024-01-15", Windows: []model.ClockWindow{{Start: "09:00", End: "10:00"}}},
		model.DayAvailability{Date: "2024-01-15", Windows: []model.ClockWindow{{Start: "14:00", End: "15:00"}}},
	)
	v := NewWeekView(model.TeamAvailability{Members: []model.TeamMemberAvailability{m}}, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	entry, ok := v.MemberDay("alice", day)
	if !ok {
		t.Fatalf("expected an entry for the date")
	}
	if entry.Windows[0].Start != "09:00" {
		t.Fatalf("first entry must win, got window starting %s", entry.Windows[0].Start)
	}
}
