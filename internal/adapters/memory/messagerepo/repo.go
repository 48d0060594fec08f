package messagerepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
)

// Repo is an in-memory implementation of messagerepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex
	m  map[domain.MessageID]messagerepo.Message
}

func NewRepo() *Repo {
	return &Repo{m: make(map[domain.MessageID]messagerepo.Message)}
}

func (r *Repo) Create(ctx context.Context, msg messagerepo.Message) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[msg.ID]; ok || msg.ID == "" {
		return messagerepo.ErrAlreadyExists
	}
	r.m[msg.ID] = msg
	return nil
}

func (r *Repo) Update(ctx context.Context, msg messagerepo.Message) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.m[msg.ID]
	if !ok {
		return messagerepo.ErrNotFound
	}
	msg.IsBlocked = existing.IsBlocked
	r.m[msg.ID] = msg
	return nil
}

func (r *Repo) ToggleBlocked(ctx context.Context, id domain.MessageID, at time.Time) (messagerepo.Message, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.m[id]
	if !ok {
		return messagerepo.Message{}, messagerepo.ErrNotFound
	}
	msg.IsBlocked = !msg.IsBlocked
	msg.UpdatedAt = at.UTC()
	r.m[id] = msg
	return msg, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MessageID) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MessageID) (messagerepo.Message, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.m[id]
	if !ok {
		return messagerepo.Message{}, messagerepo.ErrNotFound
	}
	return msg, nil
}

func (r *Repo) List(ctx context.Context) ([]messagerepo.Message, error) {
	return r.filter(ctx, func(messagerepo.Message) bool { return true })
}

func (r *Repo) ListByReservation(ctx context.Context, reservationID domain.ReservationID) ([]messagerepo.Message, error) {
	return r.filter(ctx, func(m messagerepo.Message) bool { return m.ReservationID == reservationID })
}

func (r *Repo) ListPublic(ctx context.Context) ([]messagerepo.Message, error) {
	return r.filter(ctx, func(m messagerepo.Message) bool { return m.IsPublic && !m.IsBlocked })
}

func (r *Repo) filter(ctx context.Context, keep func(messagerepo.Message) bool) ([]messagerepo.Message, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]messagerepo.Message, 0)
	for _, m := range r.m {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return string(out[i].ID) < string(out[j].ID)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
