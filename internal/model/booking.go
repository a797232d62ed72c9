package model

import "time"

// Booking is the stored team booking row.
type Booking struct {
	ID           string
	TeamID       string
	EventName    string
	InviteeName  string
	InviteeEmail string
	StartTime    time.Time
	EndTime      time.Time
	Status       string
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
}

func (b Booking) Brief() TeamBookingBrief {
	return TeamBookingBrief{
		ID:          b.ID,
		EventName:   b.EventName,
		InviteeName: b.InviteeName,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
	}
}
