package reservations

import "github.com/weddingpass/pass-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

type CreateInput struct {
	GuestName        string
	NumberOfGuests   int
	AccompanistNames []string
	// MainGuestAttending defaults to true when nil.
	MainGuestAttending *bool

	Table *string
	Group *string
	Notes *string
}

// UpdateInput is a partial update. Code and CreatedAt are immutable.
type UpdateInput struct {
	GuestName          Optional[string] // cannot be null
	NumberOfGuests     Optional[int]    // cannot be null
	AccompanistNames   Optional[[]string]
	Accompanists       Optional[[]domain.Accompanist] // null returns to status-based attendance
	MainGuestAttending Optional[bool]                 // cannot be null
	Status             Optional[domain.ReservationStatus]

	Table Optional[string]
	Group Optional[string]
	Notes Optional[string]
}

// ConfirmInput is the pass owner's answer.
type ConfirmInput struct {
	MainGuestAttending bool
	Accompanists       []domain.Accompanist
}
