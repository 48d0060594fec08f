package messagerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/weddingpass/pass-api/internal/adapters/postgres"
	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/messagerepo"
)

const selectColumns = `
	id,
	reservation_id,
	guest_name,
	message,
	message_type,
	is_public,
	is_blocked,
	created_at,
	updated_at
`

// Repo is a Postgres implementation of messagerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, m messagerepo.Message) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid message id: %w", err)
	}
	resID, err := uuid.Parse(string(m.ReservationID))
	if err != nil {
		return fmt.Errorf("invalid reservation id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO guest_messages (
			id,
			reservation_id,
			guest_name,
			message,
			message_type,
			is_public,
			is_blocked,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id,
		resID,
		m.GuestName,
		m.Message,
		string(m.MessageType),
		m.IsPublic,
		m.IsBlocked,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return messagerepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, m messagerepo.Message) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return messagerepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE guest_messages
		SET guest_name = $2,
		    message = $3,
		    message_type = $4,
		    is_public = $5,
		    updated_at = $6
		WHERE id = $1
	`,
		id,
		m.GuestName,
		m.Message,
		string(m.MessageType),
		m.IsPublic,
		m.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messagerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ToggleBlocked(ctx context.Context, id domain.MessageID, at time.Time) (messagerepo.Message, error) {
	if r.pool == nil {
		return messagerepo.Message{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return messagerepo.Message{}, messagerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE guest_messages
		SET is_blocked = NOT is_blocked,
		    updated_at = $2
		WHERE id = $1
		RETURNING `+selectColumns,
		uid,
		at.UTC(),
	)
	return scanMessage(row)
}

func (r *Repo) Delete(ctx context.Context, id domain.MessageID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM guest_messages WHERE id = $1`, uid)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.MessageID) (messagerepo.Message, error) {
	if r.pool == nil {
		return messagerepo.Message{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return messagerepo.Message{}, messagerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM guest_messages WHERE id = $1`, uid)
	return scanMessage(row)
}

func (r *Repo) List(ctx context.Context) ([]messagerepo.Message, error) {
	return r.query(ctx, "", nil)
}

func (r *Repo) ListByReservation(ctx context.Context, reservationID domain.ReservationID) ([]messagerepo.Message, error) {
	uid, err := uuid.Parse(string(reservationID))
	if err != nil {
		return []messagerepo.Message{}, nil
	}
	return r.query(ctx, `WHERE reservation_id = $1`, []any{uid})
}

func (r *Repo) ListPublic(ctx context.Context) ([]messagerepo.Message, error) {
	return r.query(ctx, `WHERE is_public AND NOT is_blocked`, nil)
}

func (r *Repo) query(ctx context.Context, where string, args []any) ([]messagerepo.Message, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM guest_messages
		`+where+`
		ORDER BY created_at DESC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]messagerepo.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanMessage(row interface {
	Scan(dest ...any) error
}) (messagerepo.Message, error) {
	var (
		id          uuid.UUID
		resID       uuid.UUID
		guestName   string
		message     string
		messageType string
		isPublic    bool
		isBlocked   bool
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &resID, &guestName, &message, &messageType, &isPublic, &isBlocked, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return messagerepo.Message{}, messagerepo.ErrNotFound
		}
		return messagerepo.Message{}, err
	}
	return messagerepo.Message{
		ID:            domain.MessageID(id.String()),
		ReservationID: domain.ReservationID(resID.String()),
		GuestName:     guestName,
		Message:       message,
		MessageType:   domain.MessageType(messageType),
		IsPublic:      isPublic,
		IsBlocked:     isBlocked,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     updatedAt.UTC(),
	}, nil
}
