package messagerepo

import (
	"context"
	"time"

	"github.com/weddingpass/pass-api/internal/domain"
)

// Message is the persistence shape used by the guest message repository.
type Message struct {
	ID            domain.MessageID
	ReservationID domain.ReservationID

	GuestName   string
	Message     string
	MessageType domain.MessageType

	IsPublic  bool
	IsBlocked bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted guest messages.
//
// List methods return results ordered by CreatedAt descending, then ID ascending.
type Repository interface {
	Create(ctx context.Context, m Message) error
	// Update writes the editable fields of m. IsBlocked is only changed by ToggleBlocked.
	Update(ctx context.Context, m Message) error

	// ToggleBlocked flips IsBlocked in a single write and returns the updated message.
	ToggleBlocked(ctx context.Context, id domain.MessageID, at time.Time) (Message, error)

	// Delete removes the message. Deleting a missing message is not an error.
	Delete(ctx context.Context, id domain.MessageID) error

	GetByID(ctx context.Context, id domain.MessageID) (Message, error)

	List(ctx context.Context) ([]Message, error)
	ListByReservation(ctx context.Context, reservationID domain.ReservationID) ([]Message, error)
	// ListPublic returns messages that are public and not blocked.
	ListPublic(ctx context.Context) ([]Message, error)
}
