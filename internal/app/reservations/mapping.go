package reservations

import (
	"encoding/json"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

func toDomain(rec reservationrepo.Reservation) domain.Reservation {
	r := domain.Reservation{
		ID:                 rec.ID,
		Code:               rec.Code,
		GuestName:          rec.GuestName,
		NumberOfGuests:     rec.NumberOfGuests,
		MainGuestAttending: rec.MainGuestAttending,
		Status:             rec.Status,
		Table:              cloneStringPtr(rec.Table),
		Group:              cloneStringPtr(rec.Group),
		Notes:              cloneStringPtr(rec.Notes),
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.AccompanistNames != nil {
		r.AccompanistNames = append([]string(nil), rec.AccompanistNames...)
	}
	// Undecodable documents surface as unset; the stored bytes stay untouched.
	if accs, ok := decodeAccompanists(rec.Accompanists); ok {
		r.Accompanists = accs
	}
	if rec.CheckedInAt != nil {
		v := *rec.CheckedInAt
		r.CheckedInAt = &v
	}
	return r
}

func toDomainList(recs []reservationrepo.Reservation) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomain(rec))
	}
	return out
}

// decodeAccompanists returns ok=false for absent or undecodable documents.
// A JSON null counts as absent.
func decodeAccompanists(raw []byte) ([]domain.Accompanist, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var accs []domain.Accompanist
	if err := json.Unmarshal(raw, &accs); err != nil || accs == nil {
		return nil, false
	}
	return accs, true
}

// attendanceInfo derives the attendance variant from the stored columns.
func attendanceInfo(a reservationrepo.Attendance) domain.AttendanceInfo {
	info := domain.AttendanceInfo{
		Kind:               domain.AttendanceStatusBased,
		Status:             a.Status,
		NumberOfGuests:     a.NumberOfGuests,
		MainGuestAttending: a.MainGuestAttending,
	}
	if len(a.Accompanists) == 0 || string(a.Accompanists) == "null" {
		return info
	}
	accs, ok := decodeAccompanists(a.Accompanists)
	if !ok {
		info.Kind = domain.AttendanceUnreadable
		return info
	}
	info.Kind = domain.AttendanceStructured
	info.Accompanists = accs
	return info
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
