package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCheckedIn ReservationStatus = "checked-in"
)

// ParseReservationStatus returns the status for s and whether it is a known value.
func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn:
		return ReservationStatus(s), true
	default:
		return "", false
	}
}

const (
	MinGuestsPerReservation = 1
	MaxGuestsPerReservation = 10
)

// Accompanist is a named guest travelling under a reservation's main invitee.
type Accompanist struct {
	Name       string `json:"name"`
	WillAttend bool   `json:"willAttend"`
}

// Reservation is the domain representation of an invitation booking.
type Reservation struct {
	ID   ReservationID
	Code string

	GuestName      string
	NumberOfGuests int

	// AccompanistNames is the plain list of companion names entered by the admin.
	AccompanistNames []string
	// Accompanists holds per-companion attendance once the pass owner has answered; nil means unset.
	Accompanists []Accompanist

	MainGuestAttending bool
	Status             ReservationStatus

	Table *string
	Group *string
	Notes *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CheckedInAt *time.Time
}

// AccompanistDisplayNames returns structured accompanist names when present, else AccompanistNames.
func (r Reservation) AccompanistDisplayNames() []string {
	if r.Accompanists != nil {
		out := make([]string, 0, len(r.Accompanists))
		for _, a := range r.Accompanists {
			out = append(out, a.Name)
		}
		return out
	}
	return r.AccompanistNames
}

// AttendanceKind tags how confirmed attendance is derived for one reservation.
type AttendanceKind int

const (
	// AttendanceStatusBased applies when no structured accompanist data exists:
	// every guest counts once the reservation is confirmed or checked in.
	AttendanceStatusBased AttendanceKind = iota
	// AttendanceStructured counts the main guest and each accompanist by their own flags.
	AttendanceStructured
	// AttendanceUnreadable applies when stored accompanist data cannot be decoded.
	// The reservation counts as fully attending.
	AttendanceUnreadable
)

// AttendanceInfo is the attendance input for one reservation.
type AttendanceInfo struct {
	Kind           AttendanceKind
	Status         ReservationStatus
	NumberOfGuests int

	MainGuestAttending bool
	Accompanists       []Accompanist
}

// ConfirmedAttendees returns the number of people this reservation contributes to confirmed attendance.
func (a AttendanceInfo) ConfirmedAttendees() int {
	switch a.Kind {
	case AttendanceStructured:
		n := 0
		if a.MainGuestAttending {
			n++
		}
		for _, acc := range a.Accompanists {
			if acc.WillAttend {
				n++
			}
		}
		return n
	case AttendanceUnreadable:
		return a.NumberOfGuests
	default:
		if a.Status == ReservationStatusConfirmed || a.Status == ReservationStatusCheckedIn {
			return a.NumberOfGuests
		}
		return 0
	}
}

// ReservationStats summarises the current reservation set.
type ReservationStats struct {
	TotalReservations     int
	TotalGuests           int
	ConfirmedAttendees    int
	AvailableSpots        int
	PendingReservations   int
	ConfirmedReservations int
	CheckedInReservations int
	CheckedInGuests       int
}
