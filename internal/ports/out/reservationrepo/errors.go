package reservationrepo

import "errors"

var (
	// ErrNotFound indicates the requested reservation does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrAlreadyExists indicates a reservation already exists with the provided ID.
	ErrAlreadyExists = errors.New("reservation already exists")

	// ErrCodeTaken indicates another reservation already holds the provided code.
	ErrCodeTaken = errors.New("reservation code already taken")

	// ErrCapacityExceeded indicates the write would push total guests above the capacity limit.
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	// ErrAlreadyCheckedIn indicates the reservation was already checked in.
	ErrAlreadyCheckedIn = errors.New("reservation already checked in")
)
