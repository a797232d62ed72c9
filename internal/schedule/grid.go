package schedule

import (
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

// SlotRef identifies one clickable grid cell: the date ("yyyy-MM-dd") and the
// slot time ("HH:00"). Slot granularity is whole hours; finer selection is a
// downstream concern.
type SlotRef struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Indicator marks one member's presence in a cell. Busy means the member has
// an availability window covering the hour but a commitment occupies it; the
// front end renders those muted instead of in the member color.
type Indicator struct {
	UserID string `json:"user_id"`
	Color  string `json:"color"`
	Busy   bool   `json:"busy"`
}

// Cell is the resolved state of one day+hour grid cell. Members without an
// availability entry for the day, or whose windows miss the hour, simply do
// not appear in Indicators.
type Cell struct {
	Slot         SlotRef                  `json:"slot"`
	AllAvailable bool                     `json:"all_available"`
	Indicators   []Indicator              `json:"indicators"`
	Bookings     []model.TeamBookingBrief `json:"bookings"`
}

// DayColumn heads one column of the grid.
type DayColumn struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// HourRow is one hourly row across the 7 days.
type HourRow struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// MemberColor pairs a member with the palette color assigned for this view.
type MemberColor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// WeekGrid is the fully rendered week view model returned to the calendar
// front end.
type WeekGrid struct {
	WeekStart string        `json:"week_start"`
	Timezone  string        `json:"timezone"`
	Days      []DayColumn   `json:"days"`
	Hours     []HourRow     `json:"hours"`
	Members   []MemberColor `json:"members"`
}

// ResolveCell computes one cell's state for the given day and hour.
func (v *WeekView) ResolveCell(day time.Time, hour int) Cell {
	cell := Cell{
		Slot:       SlotRef{Date: day.Format(DateLayout), Time: SlotLabel(hour)},
		Indicators: []Indicator{},
		Bookings:   []model.TeamBookingBrief{},
	}

	if slot, ok := v.OverlappingFor(day); ok {
		cell.AllAvailable = InWindows(hour, 0, slot.Windows)
	}

	for _, m := range v.data.Members {
		entry, ok := v.MemberDay(m.UserID, day)
		if !ok {
			continue
		}
		if !InWindows(hour, 0, entry.Windows) {
			continue
		}
		cell.Indicators = append(cell.Indicators, Indicator{
			UserID: m.UserID,
			Color:  v.colors[m.UserID],
			Busy:   InBusyTimes(day, hour, 0, entry.BusyTimes),
		})
	}

	for _, b := range v.BookingsFor(day) {
		if b.StartTime.In(v.loc).Hour() == hour {
			cell.Bookings = append(cell.Bookings, b)
		}
	}

	return cell
}

// Grid renders the whole displayed week: 7 day columns by 17 hourly rows.
func (v *WeekView) Grid() WeekGrid {
	days := v.WeekDays()
	grid := WeekGrid{
		WeekStart: v.weekStart.Format(DateLayout),
		Timezone:  v.loc.String(),
		Days:      make([]DayColumn, 0, len(days)),
		Hours:     make([]HourRow, 0, GridEndHour-GridStartHour+1),
		Members:   make([]MemberColor, 0, len(v.data.Members)),
	}
	for _, d := range days {
		grid.Days = append(grid.Days, DayColumn{
			Date:    d.Format(DateLayout),
			Weekday: d.Weekday().String(),
		})
	}
	for _, m := range v.data.Members {
		grid.Members = append(grid.Members, MemberColor{
			UserID: m.UserID,
			Name:   m.User.Name,
			Color:  v.colors[m.UserID],
		})
	}
	for hour := GridStartHour; hour <= GridEndHour; hour++ {
		row := HourRow{
			Hour:  hour,
			Label: SlotLabel(hour),
			Cells: make([]Cell, 0, len(days)),
		}
		for _, d := range days {
			row.Cells = append(row.Cells, v.ResolveCell(d, hour))
		}
		grid.Hours = append(grid.Hours, row)
	}
	return grid
}
