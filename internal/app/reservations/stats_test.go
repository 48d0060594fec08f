package reservations

import (
	"testing"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	st := Aggregate(nil, 150)
	if st != (domain.ReservationStats{AvailableSpots: 150}) {
		t.Fatalf("stats=%+v", st)
	}
}

func TestAggregate_Mixed(t *testing.T) {
	t.Parallel()

	infos := []domain.AttendanceInfo{
		attendanceInfo(reservationrepo.Attendance{NumberOfGuests: 4, Status: domain.ReservationStatusPending}),
		attendanceInfo(reservationrepo.Attendance{NumberOfGuests: 3, Status: domain.ReservationStatusConfirmed}),
		attendanceInfo(reservationrepo.Attendance{NumberOfGuests: 2, Status: domain.ReservationStatusCheckedIn}),
		attendanceInfo(reservationrepo.Attendance{
			NumberOfGuests:     3,
			Status:             domain.ReservationStatusConfirmed,
			MainGuestAttending: true,
			Accompanists:       []byte(`[{"name":"Ana","willAttend":true},{"name":"Luis","willAttend":false}]`),
		}),
		attendanceInfo(reservationrepo.Attendance{NumberOfGuests: 5, Status: domain.ReservationStatusPending, Accompanists: []byte(`not json`)}),
	}
	if infos[3].Kind != domain.AttendanceStructured || infos[4].Kind != domain.AttendanceUnreadable || infos[0].Kind != domain.AttendanceStatusBased {
		t.Fatalf("kinds=%v,%v,%v", infos[0].Kind, infos[3].Kind, infos[4].Kind)
	}

	st := Aggregate(infos, 15)
	want := domain.ReservationStats{
		TotalReservations:     5,
		TotalGuests:           17,
		ConfirmedAttendees:    3 + 2 + 2 + 5,
		AvailableSpots:        -2,
		PendingReservations:   2,
		ConfirmedReservations: 2,
		CheckedInReservations: 1,
		CheckedInGuests:       2,
	}
	if st != want {
		t.Fatalf("stats=%+v, want %+v", st, want)
	}
}

func TestAttendanceInfo_NullDocumentIsStatusBased(t *testing.T) {
	t.Parallel()

	info := attendanceInfo(reservationrepo.Attendance{NumberOfGuests: 2, Status: domain.ReservationStatusPending, Accompanists: []byte("null")})
	if info.Kind != domain.AttendanceStatusBased || info.ConfirmedAttendees() != 0 {
		t.Fatalf("info=%+v", info)
	}
}
