package reservationrepo

import (
	"context"
	"time"

	"github.com/weddingpass/pass-api/internal/domain"
)

// Reservation is the persistence shape used by the reservation repository.
// It is not an HTTP DTO.
type Reservation struct {
	ID   domain.ReservationID
	Code string

	GuestName      string
	NumberOfGuests int

	AccompanistNames []string
	// Accompanists is the stored JSON document of per-companion attendance; nil means absent.
	// Adapters persist it verbatim, even when it does not decode.
	Accompanists []byte

	MainGuestAttending bool
	Status             domain.ReservationStatus

	Table *string
	Group *string
	Notes *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CheckedInAt *time.Time
}

// Attendance is the column projection read by the attendance aggregator.
type Attendance struct {
	NumberOfGuests     int
	Status             domain.ReservationStatus
	MainGuestAttending bool
	Accompanists       []byte
}

// Repository provides access to persisted reservations.
//
// Capacity-guarded writes must evaluate the guest total and apply the write as one
// atomic step with respect to other guarded writes.
//
// Result ordering expectations:
// - List/Search/ListByStatus return results ordered by CreatedAt descending, then ID ascending.
type Repository interface {
	// Create inserts r when the total guest count including r stays within maxCapacity.
	// Returns ErrCodeTaken, ErrAlreadyExists or ErrCapacityExceeded.
	Create(ctx context.Context, r Reservation, maxCapacity int) error

	// Update replaces the stored reservation. When maxCapacity is non-nil the total guest count
	// after the update must stay within it. A stored checked-in reservation is only
	// overwritten by a record that is also checked-in; otherwise Update returns ErrAlreadyCheckedIn.
	Update(ctx context.Context, r Reservation, maxCapacity *int) error

	// MarkCheckedIn moves the reservation to checked-in and stamps CheckedInAt.
	// Returns ErrAlreadyCheckedIn if it is already checked in.
	MarkCheckedIn(ctx context.Context, id domain.ReservationID, at time.Time) (Reservation, error)

	// Delete removes the reservation. Deleting a missing reservation is not an error.
	Delete(ctx context.Context, id domain.ReservationID) error

	GetByID(ctx context.Context, id domain.ReservationID) (Reservation, error)
	// GetByCode matches the stored (upper-case) code exactly; callers normalize first.
	GetByCode(ctx context.Context, code string) (Reservation, error)

	List(ctx context.Context) ([]Reservation, error)
	// Search matches query case-insensitively as a substring of guest name, code or group.
	Search(ctx context.Context, query string) ([]Reservation, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]Reservation, error)

	ListAttendance(ctx context.Context) ([]Attendance, error)
}
