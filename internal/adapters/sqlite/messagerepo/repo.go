package messagerepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/weddingpass/pass-api/internal/adapters/sqlite"
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

// Repo is a SQLite implementation of messagerepo.Repository.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, m messagerepo.Message) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO guest_messages (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(m.ID),
		string(m.ReservationID),
		m.GuestName,
		m.Message,
		string(m.MessageType),
		m.IsPublic,
		m.IsBlocked,
		sqlite.FormatTime(m.CreatedAt),
		sqlite.FormatTime(m.UpdatedAt),
	)
	if sqlite.IsUniqueViolation(err, "guest_messages.id") {
		return messagerepo.ErrAlreadyExists
	}
	return err
}

func (r *Repo) Update(ctx context.Context, m messagerepo.Message) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE guest_messages
		SET guest_name = ?,
		    message = ?,
		    message_type = ?,
		    is_public = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		m.GuestName,
		m.Message,
		string(m.MessageType),
		m.IsPublic,
		sqlite.FormatTime(m.UpdatedAt),
		string(m.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return messagerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) ToggleBlocked(ctx context.Context, id domain.MessageID, at time.Time) (messagerepo.Message, error) {
	if r.db == nil {
		return messagerepo.Message{}, errors.New("nil sqlite db")
	}
	var out messagerepo.Message
	err := sqlite.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE guest_messages
			SET is_blocked = NOT is_blocked, updated_at = ?
			WHERE id = ?
		`, sqlite.FormatTime(at), string(id)); err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM guest_messages WHERE id = ?`, string(id))
		m, err := scanMessage(row)
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return messagerepo.Message{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.MessageID) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM guest_messages WHERE id = ?`, string(id))
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.MessageID) (messagerepo.Message, error) {
	if r.db == nil {
		return messagerepo.Message{}, errors.New("nil sqlite db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM guest_messages WHERE id = ?`, string(id))
	return scanMessage(row)
}

func (r *Repo) List(ctx context.Context) ([]messagerepo.Message, error) {
	return r.query(ctx, "")
}

func (r *Repo) ListByReservation(ctx context.Context, reservationID domain.ReservationID) ([]messagerepo.Message, error) {
	return r.query(ctx, `WHERE reservation_id = ?`, string(reservationID))
}

func (r *Repo) ListPublic(ctx context.Context) ([]messagerepo.Message, error) {
	return r.query(ctx, `WHERE is_public = 1 AND is_blocked = 0`)
}

func (r *Repo) query(ctx context.Context, where string, args ...any) ([]messagerepo.Message, error) {
	if r.db == nil {
		return nil, errors.New("nil sqlite db")
	}
	rows, err := r.db.QueryContext(ctx, `
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
		m           messagerepo.Message
		id          string
		resID       string
		messageType string
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&id, &resID, &m.GuestName, &m.Message, &messageType, &m.IsPublic, &m.IsBlocked, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return messagerepo.Message{}, messagerepo.ErrNotFound
		}
		return messagerepo.Message{}, err
	}
	var err error
	if m.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return messagerepo.Message{}, err
	}
	if m.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return messagerepo.Message{}, err
	}
	m.ID = domain.MessageID(id)
	m.ReservationID = domain.ReservationID(resID)
	m.MessageType = domain.MessageType(messageType)
	return m, nil
}
