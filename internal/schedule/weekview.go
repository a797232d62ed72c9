package schedule

import (
	"log/slog"
	"time"

	"github.com/bhanuc/aexy-availability/internal/model"
)

// Grid extent: hourly rows from 06:00 through 22:00 inclusive.
const (
	GridStartHour = 6
	GridEndHour   = 22
)

// memberPalette is the fixed set of display colors. Members are assigned
// palette[index % 8] in their supplied order; past the eighth member colors
// repeat.
var memberPalette = [8]string{
	"#3b82f6", // blue
	"#10b981", // emerald
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#ef4444", // red
	"#06b6d4", // cyan
	"#ec4899", // pink
	"#84cc16", // lime
}

// ColorFor returns the palette entry for a member display index.
func ColorFor(index int) string {
	if index < 0 {
		index = -index
	}
	return memberPalette[index%len(memberPalette)]
}

// Bounds optionally clamps week navigation. The zero value means unbounded,
// which is the default policy: navigating past the fetched range just renders
// empty grids.
type Bounds struct {
	Min time.Time
	Max time.Time
}

func (b Bounds) clamp(weekStart time.Time) time.Time {
	if !b.Min.IsZero() {
		if minMonday := MondayOf(b.Min); weekStart.Before(minMonday) {
			return minMonday
		}
	}
	if !b.Max.IsZero() {
		if maxMonday := MondayOf(b.Max); weekStart.After(maxMonday) {
			return maxMonday
		}
	}
	return weekStart
}

// dayIndex is the per-date lookup precomputed once per WeekView so cell
// resolution is O(1) instead of a linear rescan per cell.
type dayIndex struct {
	perMember   map[string]model.DayAvailability
	overlapping *model.OverlappingSlot
	bookings    []model.TeamBookingBrief
}

// WeekView owns the displayed week and resolves grid cells against one
// TeamAvailability snapshot. The snapshot is read-only; the only mutable
// state is the current week start, always a Monday midnight in loc.
type WeekView struct {
	data      model.TeamAvailability
	loc       *time.Location
	weekStart time.Time
	bounds    Bounds
	onChange  func(time.Time)
	colors    map[string]string
	days      map[string]*dayIndex
}

// Options configures a WeekView. Anchor defaults to now; Location defaults
// to UTC; OnChange, Bounds, and Logger are optional.
type Options struct {
	Anchor   time.Time
	Location *time.Location
	Bounds   Bounds
	OnChange func(time.Time)
	Logger   *slog.Logger
}

// NewWeekView builds the view, normalizing the anchor to its Monday and
// indexing the snapshot by date. Nil collections in the snapshot are treated
// as empty.
func NewWeekView(data model.TeamAvailability, opts Options) *WeekView {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	anchor := opts.Anchor
	if anchor.IsZero() {
		anchor = time.Now().In(loc)
	}

	v := &WeekView{
		data:     data,
		loc:      loc,
		bounds:   opts.Bounds,
		onChange: opts.OnChange,
		colors:   make(map[string]string, len(data.Members)),
		days:     make(map[string]*dayIndex),
	}
	v.weekStart = v.bounds.clamp(MondayOf(anchor.In(loc)))
	v.buildIndex(opts.Logger)
	return v
}

// MondayOf returns midnight of the Monday of t's week, in t's location.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

func (v *WeekView) buildIndex(logger *slog.Logger) {
	for i, m := range v.data.Members {
		v.colors[m.UserID] = ColorFor(i)
		for _, d := range m.Availability {
			idx := v.day(d.Date)
			if _, dup := idx.perMember[m.UserID]; dup {
				// First entry wins; the upstream contract promises one per date.
				if logger != nil {
					logger.Warn("duplicate day availability entry dropped", "user_id", m.UserID, "date", d.Date)
				}
				continue
			}
			idx.perMember[m.UserID] = d
		}
	}
	for i := range v.data.OverlappingSlots {
		slot := v.data.OverlappingSlots[i]
		idx := v.day(slot.Date)
		if idx.overlapping != nil {
			if logger != nil {
				logger.Warn("duplicate overlapping slot dropped", "date", slot.Date)
			}
			continue
		}
		idx.overlapping = &slot
	}
	for _, b := range v.data.Bookings {
		key := b.StartTime.In(v.loc).Format(DateLayout)
		idx := v.day(key)
		idx.bookings = append(idx.bookings, b)
	}
}

func (v *WeekView) day(key string) *dayIndex {
	idx, ok := v.days[key]
	if !ok {
		idx = &dayIndex{perMember: make(map[string]model.DayAvailability)}
		v.days[key] = idx
	}
	return idx
}

// WeekStart returns the currently displayed Monday.
func (v *WeekView) WeekStart() time.Time { return v.weekStart }

// WeekDays returns the 7 consecutive dates of the displayed week,
// Monday..Sunday.
func (v *WeekView) WeekDays() [7]time.Time {
	var days [7]time.Time
	for i := range days {
		days[i] = v.weekStart.AddDate(0, 0, i)
	}
	return days
}

// PreviousWeek shifts the view back 7 days and fires the change callback.
func (v *WeekView) PreviousWeek() {
	v.setWeekStart(v.weekStart.AddDate(0, 0, -7))
}

// NextWeek shifts the view forward 7 days and fires the change callback.
func (v *WeekView) NextWeek() {
	v.setWeekStart(v.weekStart.AddDate(0, 0, 7))
}

// GoToToday resets the view to the Monday of now's week.
func (v *WeekView) GoToToday(now time.Time) {
	v.setWeekStart(MondayOf(now.In(v.loc)))
}

func (v *WeekView) setWeekStart(weekStart time.Time) {
	v.weekStart = v.bounds.clamp(weekStart)
	if v.onChange != nil {
		v.onChange(v.weekStart)
	}
}

// Color returns the display color assigned to a member, or "" for unknown
// members.
func (v *WeekView) Color(userID string) string { return v.colors[userID] }

// MemberDay returns the member's availability entry for the given day.
func (v *WeekView) MemberDay(userID string, day time.Time) (model.DayAvailability, bool) {
	idx, ok := v.days[day.Format(DateLayout)]
	if !ok {
		return model.DayAvailability{}, false
	}
	d, ok := idx.perMember[userID]
	return d, ok
}

// OverlappingFor returns the precomputed overlapping slot for the day.
func (v *WeekView) OverlappingFor(day time.Time) (model.OverlappingSlot, bool) {
	idx, ok := v.days[day.Format(DateLayout)]
	if !ok || idx.overlapping == nil {
		return model.OverlappingSlot{}, false
	}
	return *idx.overlapping, true
}

// BookingsFor returns the bookings starting on the same calendar day as day,
// in the view's location.
func (v *WeekView) BookingsFor(day time.Time) []model.TeamBookingBrief {
	idx, ok := v.days[day.Format(DateLayout)]
	if !ok {
		return nil
	}
	return idx.bookings
}
