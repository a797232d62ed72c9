// Package model holds the wire/domain types for team availability. The JSON
// shapes here are the contract consumed by the calendar front end.
package model

import "time"

// ClockWindow is a clock-time interval within a single day, "HH:mm" to
// "HH:mm". Windows are half-open: the end minute itself is outside.
type ClockWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusyInterval is an absolute interval carved out of a member's availability
// by a scheduled commitment. Half-open, same as ClockWindow.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayAvailability is one member's availability on one calendar date.
// Date is "yyyy-MM-dd" in the team's timezone. BusyTimes usually fall inside
// Windows but nothing here assumes or enforces that.
type DayAvailability struct {
	Date      string         `json:"date"`
	Windows   []ClockWindow  `json:"windows"`
	BusyTimes []BusyInterval `json:"busy_times"`
}

type MemberInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TeamMemberAvailability is one member's availability over the whole fetched
// range, one DayAvailability per date.
type TeamMemberAvailability struct {
	UserID       string            `json:"user_id"`
	User         MemberInfo        `json:"user"`
	Availability []DayAvailability `json:"availability"`
}

// OverlappingSlot lists the windows on one date during which every tracked
// member's effective availability coincides.
type OverlappingSlot struct {
	Date    string        `json:"date"`
	Windows []ClockWindow `json:"windows"`
}

// TeamBookingBrief is the read-side projection of a booking rendered on the
// calendar grid.
type TeamBookingBrief struct {
	ID          string    `json:"id"`
	EventName   string    `json:"event_name"`
	InviteeName string    `json:"invitee_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// TeamAvailability is the aggregate for one fetched range: member
// availability, precomputed overlapping windows, and scheduled bookings.
// Member order is display order and drives color assignment.
type TeamAvailability struct {
	Members          []TeamMemberAvailability `json:"members"`
	OverlappingSlots []OverlappingSlot        `json:"overlapping_slots"`
	Bookings         []TeamBookingBrief       `json:"bookings"`
}

// Normalize replaces nil collections with empty ones so consumers never see
// null where the contract promises a list.
func (a *TeamAvailability) Normalize() {
	if a.Members == nil {
		a.Members = []TeamMemberAvailability{}
	}
	if a.OverlappingSlots == nil {
		a.OverlappingSlots = []OverlappingSlot{}
	}
	if a.Bookings == nil {
		a.Bookings = []TeamBookingBrief{}
	}
	for i := range a.Members {
		if a.Members[i].Availability == nil {
			a.Members[i].Availability = []DayAvailability{}
		}
		for j := range a.Members[i].Availability {
			day := &a.Members[i].Availability[j]
			if day.Windows == nil {
				day.Windows = []ClockWindow{}
			}
			if day.BusyTimes == nil {
				day.BusyTimes = []BusyInterval{}
			}
		}
	}
	for i := range a.OverlappingSlots {
		if a.OverlappingSlots[i].Windows == nil {
			a.OverlappingSlots[i].Windows = []ClockWindow{}
		}
	}
}
