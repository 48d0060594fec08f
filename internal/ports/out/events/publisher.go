package events

import (
	"context"
	"time"
)

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationUpdated   Type = "reservation.updated"
	ReservationConfirmed Type = "reservation.confirmed"
	ReservationCheckedIn Type = "reservation.checked_in"
	ReservationDeleted   Type = "reservation.deleted"

	MessageCreated   Type = "message.created"
	MessageBlocked   Type = "message.blocked"
	MessageUnblocked Type = "message.unblocked"
	MessageDeleted   Type = "message.deleted"

	SessionSignedIn  Type = "session.signed_in"
	SessionSignedOut Type = "session.signed_out"
)

// Event is a lifecycle notification for dashboards and door staff screens.
// Data must be JSON-encodable.
type Event struct {
	Type       Type
	OccurredAt time.Time
	Data       any
}

// Publisher delivers events to subscribers. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
