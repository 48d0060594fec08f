package reservationrepo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

// Repo is an in-memory implementation of reservationrepo.Repository.
// It is safe for concurrent use; guarded writes run under the write lock.
type Repo struct {
	mu sync.RWMutex

	byID     map[domain.ReservationID]reservationrepo.Reservation
	idByCode map[string]domain.ReservationID
}

func NewRepo() *Repo {
	return &Repo{
		byID:     make(map[domain.ReservationID]reservationrepo.Reservation),
		idByCode: make(map[string]domain.ReservationID),
	}
}

func (r *Repo) Create(ctx context.Context, rec reservationrepo.Reservation, maxCapacity int) error {
	_ = ctx
	if rec.ID == "" {
		return reservationrepo.ErrAlreadyExists // treat empty ID as invalid; the service always assigns one
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; ok {
		return reservationrepo.ErrAlreadyExists
	}
	if _, ok := r.idByCode[rec.Code]; ok {
		return reservationrepo.ErrCodeTaken
	}
	if r.totalGuestsLocked("")+rec.NumberOfGuests > maxCapacity {
		return reservationrepo.ErrCapacityExceeded
	}

	r.byID[rec.ID] = cloneReservation(rec)
	r.idByCode[rec.Code] = rec.ID
	return nil
}

func (r *Repo) Update(ctx context.Context, rec reservationrepo.Reservation, maxCapacity *int) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[rec.ID]
	if !ok {
		return reservationrepo.ErrNotFound
	}
	if existing.Status == domain.ReservationStatusCheckedIn && rec.Status != domain.ReservationStatusCheckedIn {
		return reservationrepo.ErrAlreadyCheckedIn
	}
	if existing.Code != rec.Code {
		if _, taken := r.idByCode[rec.Code]; taken {
			return reservationrepo.ErrCodeTaken
		}
	}
	if maxCapacity != nil && r.totalGuestsLocked(rec.ID)+rec.NumberOfGuests > *maxCapacity {
		return reservationrepo.ErrCapacityExceeded
	}

	delete(r.idByCode, existing.Code)
	r.byID[rec.ID] = cloneReservation(rec)
	r.idByCode[rec.Code] = rec.ID
	return nil
}

func (r *Repo) MarkCheckedIn(ctx context.Context, id domain.ReservationID, at time.Time) (reservationrepo.Reservation, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
	}
	if rec.Status == domain.ReservationStatusCheckedIn {
		return reservationrepo.Reservation{}, reservationrepo.ErrAlreadyCheckedIn
	}
	at = at.UTC()
	rec.Status = domain.ReservationStatusCheckedIn
	rec.CheckedInAt = &at
	rec.UpdatedAt = at
	r.byID[id] = rec
	return cloneReservation(rec), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ReservationID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byID[id]; ok {
		delete(r.idByCode, rec.Code)
		delete(r.byID, id)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ReservationID) (reservationrepo.Reservation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
	}
	return cloneReservation(rec), nil
}

func (r *Repo) GetByCode(ctx context.Context, code string) (reservationrepo.Reservation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByCode[code]
	if !ok {
		return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
	}
	return cloneReservation(r.byID[id]), nil
}

func (r *Repo) List(ctx context.Context) ([]reservationrepo.Reservation, error) {
	return r.filter(ctx, func(reservationrepo.Reservation) bool { return true })
}

func (r *Repo) Search(ctx context.Context, query string) ([]reservationrepo.Reservation, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.filter(ctx, func(rec reservationrepo.Reservation) bool {
		if strings.Contains(strings.ToLower(rec.GuestName), q) || strings.Contains(strings.ToLower(rec.Code), q) {
			return true
		}
		return rec.Group != nil && strings.Contains(strings.ToLower(*rec.Group), q)
	})
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]reservationrepo.Reservation, error) {
	return r.filter(ctx, func(rec reservationrepo.Reservation) bool { return rec.Status == status })
}

func (r *Repo) ListAttendance(ctx context.Context) ([]reservationrepo.Attendance, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reservationrepo.Attendance, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, reservationrepo.Attendance{
			NumberOfGuests:     rec.NumberOfGuests,
			Status:             rec.Status,
			MainGuestAttending: rec.MainGuestAttending,
			Accompanists:       cloneBytes(rec.Accompanists),
		})
	}
	return out, nil
}

func (r *Repo) filter(ctx context.Context, keep func(reservationrepo.Reservation) bool) ([]reservationrepo.Reservation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reservationrepo.Reservation, 0)
	for _, rec := range r.byID {
		if keep(rec) {
			out = append(out, cloneReservation(rec))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// totalGuestsLocked sums guests over all reservations except skip. Caller holds r.mu.
func (r *Repo) totalGuestsLocked(skip domain.ReservationID) int {
	n := 0
	for id, rec := range r.byID {
		if id == skip {
			continue
		}
		n += rec.NumberOfGuests
	}
	return n
}

func sortNewestFirst(rs []reservationrepo.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return string(rs[i].ID) < string(rs[j].ID)
		}
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
}

func cloneReservation(rec reservationrepo.Reservation) reservationrepo.Reservation {
	out := rec
	if rec.AccompanistNames != nil {
		out.AccompanistNames = append([]string(nil), rec.AccompanistNames...)
	}
	out.Accompanists = cloneBytes(rec.Accompanists)
	out.Table = cloneStringPtr(rec.Table)
	out.Group = cloneStringPtr(rec.Group)
	out.Notes = cloneStringPtr(rec.Notes)
	if rec.CheckedInAt != nil {
		v := *rec.CheckedInAt
		out.CheckedInAt = &v
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
