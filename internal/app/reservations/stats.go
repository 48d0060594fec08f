package reservations

import (
	"context"

	"github.com/weddingpass/pass-api/internal/domain"
)

// GetStats recomputes the attendance summary over the full reservation set.
func (s *Service) GetStats(ctx context.Context) (domain.ReservationStats, error) {
	rows, err := s.repo.ListAttendance(ctx)
	if err != nil {
		return domain.ReservationStats{}, gatewayError(err)
	}
	infos := make([]domain.AttendanceInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, attendanceInfo(row))
	}
	return Aggregate(infos, s.event.MaxCapacity), nil
}

// Aggregate summarises attendance. AvailableSpots is not clamped and goes negative
// when the venue is overbooked.
func Aggregate(infos []domain.AttendanceInfo, maxCapacity int) domain.ReservationStats {
	st := domain.ReservationStats{TotalReservations: len(infos)}
	for _, info := range infos {
		st.TotalGuests += info.NumberOfGuests
		st.ConfirmedAttendees += info.ConfirmedAttendees()
		switch info.Status {
		case domain.ReservationStatusPending:
			st.PendingReservations++
		case domain.ReservationStatusConfirmed:
			st.ConfirmedReservations++
		case domain.ReservationStatusCheckedIn:
			st.CheckedInReservations++
			st.CheckedInGuests += info.NumberOfGuests
		}
	}
	st.AvailableSpots = maxCapacity - st.TotalGuests
	return st
}
