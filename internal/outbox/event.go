// Package outbox implements the transactional outbox: domain events are
// written in the same transaction as the state change, then a poller
// publishes them to Kafka. The topic name equals the event type.
package outbox

// Event is the envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by this service.
const (
	EventBookingCreated       = "booking.team_booking.created.v1"
	EventBookingCancelled     = "booking.team_booking.cancelled.v1"
	EventMemberWindowsUpdated = "availability.member_windows.updated.v1"
	EventTimeOffCreated       = "availability.time_off.created.v1"
	EventTimeOffDeleted       = "availability.time_off.deleted.v1"
)
