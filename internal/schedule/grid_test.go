package schedule

import (
	"testing"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

func aliceJan15() model.TeamAvailability {
	return model.TeamAvailability{
		Members: []model.TeamMemberAvailability{
			member("alice", model.DayAvailability{
				Date:    "2024-01-15",
				Windows: []model.ClockWindow{{Start: "09:00", End: "12:00"}},
				BusyTimes: []model.BusyInterval{{
					Start: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
					End:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				}},
			}),
		},
	}
}

func TestResolveCell_MemberIndicators(t *testing.T) {
	v := NewWeekView(aliceJan15(), Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Hour 9: available, not busy, member color.
	cell := v.ResolveCell(day, 9)
	if len(cell.Indicators) != 1 {
		t.Fatalf("expected one indicator at 09:00, got %d", len(cell.Indicators))
	}
	if cell.Indicators[0].Busy {
		t.Fatalf("09:00 must not be busy")
	}
	if cell.Indicators[0].Color != ColorFor(0) {
		t.Fatalf("indicator must carry the member color")
	}

	// Hour 10: available but a meeting starts at 10:00 — busy indicator.
	cell = v.ResolveCell(day, 10)
	if len(cell.Indicators) != 1 {
		t.Fatalf("expected one indicator at 10:00, got %d", len(cell.Indicators))
	}
	if !cell.Indicators[0].Busy {
		t.Fatalf("10:00 must be flagged busy")
	}

	// Hour 13: outside the window — no indicator at all.
	cell = v.ResolveCell(day, 13)
	if len(cell.Indicators) != 0 {
		t.Fatalf("expected no indicator at 13:00, got %d", len(cell.Indicators))
	}
}

func TestResolveCell_OverlapHighlightBoundary(t *testing.T) {
	data := model.TeamAvailability{
		OverlappingSlots: []model.OverlappingSlot{
			{Date: "2024-01-15", Windows: []model.ClockWindow{{Start: "14:00", End: "15:00"}}},
		},
	}
	v := NewWeekView(data, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	if !v.ResolveCell(day, 14).AllAvailable {
		t.Fatalf("14:00 must be highlighted all-available")
	}
	if v.ResolveCell(day, 15).AllAvailable {
		t.Fatalf("15:00 must not be highlighted: window end is exclusive")
	}
	other := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if v.ResolveCell(other, 14).AllAvailable {
		t.Fatalf("highlight must not leak onto other dates")
	}
}

func TestResolveCell_BookingPlacement(t *testing.T) {
	data := model.TeamAvailability{
		Bookings: []model.TeamBookingBrief{{
			ID:          "b-1",
			EventName:   "Design sync",
			InviteeName: "Carol",
			StartTime:   time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		}},
	}
	v := NewWeekView(data, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	for hour := GridStartHour; hour <= GridEndHour; hour++ {
		cell := v.ResolveCell(day, hour)
		if hour == 11 {
			if len(cell.Bookings) != 1 || cell.Bookings[0].ID != "b-1" {
				t.Fatalf("booking must render in the 11:00 row, got %v", cell.Bookings)
			}
			continue
		}
		if len(cell.Bookings) != 0 {
			t.Fatalf("booking leaked into the %02d:00 row", hour)
		}
	}
	if got := v.ResolveCell(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), 11); len(got.Bookings) != 0 {
		t.Fatalf("booking must not render on other dates")
	}
}

func TestResolveCell_SlotRef(t *testing.T) {
	v := NewWeekView(model.TeamAvailability{}, Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	cell := v.ResolveCell(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), 9)
	if cell.Slot.Date != "2024-01-16" || cell.Slot.Time != "09:00" {
		t.Fatalf("unexpected slot ref %+v", cell.Slot)
	}
}

func TestGrid_Shape(t *testing.T) {
	v := NewWeekView(aliceJan15(), Options{
		Anchor: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	grid := v.Grid()

	if grid.WeekStart != "2024-01-15" {
		t.Fatalf("unexpected week start %s", grid.WeekStart)
	}
	if len(grid.Days) != 7 {
		t.Fatalf("expected 7 day columns, got %d", len(grid.Days))
	}
	if len(grid.Hours) != 17 {
		t.Fatalf("expected 17 hourly rows (06:00-22:00), got %d", len(grid.Hours))
	}
	if grid.Hours[0].Hour != GridStartHour || grid.Hours[len(grid.Hours)-1].Hour != GridEndHour {
		t.Fatalf("grid rows must span %02d:00..%02d:00", GridStartHour, GridEndHour)
	}
	for _, row := range grid.Hours {
		if len(row.Cells) != 7 {
			t.Fatalf("row %d has %d cells", row.Hour, len(row.Cells))
		}
	}
	if len(grid.Members) != 1 || grid.Members[0].Color != ColorFor(0) {
		t.Fatalf("grid must carry the member color legend")
	}
}
