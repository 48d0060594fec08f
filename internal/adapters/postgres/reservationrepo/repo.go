package reservationrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/weddingpass/pass-api/internal/adapters/postgres"
	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/ports/out/reservationrepo"
)

const selectColumns = `
	id,
	code,
	guest_name,
	number_of_guests,
	accompanist_names,
	accompanists,
	main_guest_attending,
	status,
	table_name,
	group_name,
	notes,
	created_at,
	updated_at,
	checked_in_at
`

// Repo is a Postgres implementation of reservationrepo.Repository.
//
// Guarded writes take a SHARE ROW EXCLUSIVE lock on the table, which conflicts with
// itself and with plain row writes, so the guest total read inside the transaction
// cannot change before the write commits.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec reservationrepo.Reservation, maxCapacity int) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return fmt.Errorf("invalid reservation id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockForCapacity(ctx, tx); err != nil {
			return err
		}
		used, err := guestTotal(ctx, tx, uuid.Nil)
		if err != nil {
			return err
		}
		if used+rec.NumberOfGuests > maxCapacity {
			return reservationrepo.ErrCapacityExceeded
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO reservations (
				id,
				code,
				guest_name,
				number_of_guests,
				accompanist_names,
				accompanists,
				main_guest_attending,
				status,
				table_name,
				group_name,
				notes,
				created_at,
				updated_at,
				checked_in_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			id,
			rec.Code,
			rec.GuestName,
			rec.NumberOfGuests,
			namesOrEmpty(rec.AccompanistNames),
			jsonOrNull(rec.Accompanists),
			rec.MainGuestAttending,
			string(rec.Status),
			rec.Table,
			rec.Group,
			rec.Notes,
			rec.CreatedAt.UTC(),
			rec.UpdatedAt.UTC(),
			utcPtr(rec.CheckedInAt),
		)
		return mapWriteError(err)
	})
}

func (r *Repo) Update(ctx context.Context, rec reservationrepo.Reservation, maxCapacity *int) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return reservationrepo.ErrNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if maxCapacity != nil {
			if err := lockForCapacity(ctx, tx); err != nil {
				return err
			}
			used, err := guestTotal(ctx, tx, id)
			if err != nil {
				return err
			}
			if used+rec.NumberOfGuests > *maxCapacity {
				// Report a missing row as not found rather than over capacity.
				if _, err := getByID(ctx, tx, id); err != nil {
					return err
				}
				return reservationrepo.ErrCapacityExceeded
			}
		}

		ct, err := tx.Exec(ctx, `
			UPDATE reservations
			SET code = $2,
			    guest_name = $3,
			    number_of_guests = $4,
			    accompanist_names = $5,
			    accompanists = $6,
			    main_guest_attending = $7,
			    status = $8,
			    table_name = $9,
			    group_name = $10,
			    notes = $11,
			    updated_at = $12,
			    checked_in_at = $13
			WHERE id = $1 AND ($8 = $14 OR status <> $14)
		`,
			id,
			rec.Code,
			rec.GuestName,
			rec.NumberOfGuests,
			namesOrEmpty(rec.AccompanistNames),
			jsonOrNull(rec.Accompanists),
			rec.MainGuestAttending,
			string(rec.Status),
			rec.Table,
			rec.Group,
			rec.Notes,
			rec.UpdatedAt.UTC(),
			utcPtr(rec.CheckedInAt),
			string(domain.ReservationStatusCheckedIn),
		)
		if err != nil {
			return mapWriteError(err)
		}
		if ct.RowsAffected() == 0 {
			if _, err := getByID(ctx, tx, id); err != nil {
				return err
			}
			return reservationrepo.ErrAlreadyCheckedIn
		}
		return nil
	})
}

func (r *Repo) MarkCheckedIn(ctx context.Context, id domain.ReservationID, at time.Time) (reservationrepo.Reservation, error) {
	if r.pool == nil {
		return reservationrepo.Reservation{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
	}

	var out reservationrepo.Reservation
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE reservations
			SET status = $2,
			    checked_in_at = $3,
			    updated_at = $3
			WHERE id = $1 AND status <> $2
			RETURNING `+selectColumns,
			uid,
			string(domain.ReservationStatusCheckedIn),
			at.UTC(),
		)
		rec, err := scanReservation(row)
		if err == nil {
			out = rec
			return nil
		}
		if !errors.Is(err, reservationrepo.ErrNotFound) {
			return err
		}
		// No row changed: either missing or already checked in.
		if _, err := getByID(ctx, tx, uid); err != nil {
			return err
		}
		return reservationrepo.ErrAlreadyCheckedIn
	})
	if err != nil {
		return reservationrepo.Reservation{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ReservationID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, uid)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.ReservationID) (reservationrepo.Reservation, error) {
	if r.pool == nil {
		return reservationrepo.Reservation{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
	}
	return getByID(ctx, r.pool, uid)
}

func (r *Repo) GetByCode(ctx context.Context, code string) (reservationrepo.Reservation, error) {
	if r.pool == nil {
		return reservationrepo.Reservation{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservations WHERE code = $1`, code)
	return scanReservation(row)
}

func (r *Repo) List(ctx context.Context) ([]reservationrepo.Reservation, error) {
	return r.query(ctx, "", nil)
}

func (r *Repo) Search(ctx context.Context, query string) ([]reservationrepo.Reservation, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.query(ctx, `
		WHERE guest_name ILIKE $1
		   OR code ILIKE $1
		   OR group_name ILIKE $1
	`, []any{pattern})
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]reservationrepo.Reservation, error) {
	return r.query(ctx, `WHERE status = $1`, []any{string(status)})
}

func (r *Repo) ListAttendance(ctx context.Context) ([]reservationrepo.Attendance, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT number_of_guests, status, main_guest_attending, accompanists
		FROM reservations
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reservationrepo.Attendance, 0)
	for rows.Next() {
		var (
			a      reservationrepo.Attendance
			status string
		)
		if err := rows.Scan(&a.NumberOfGuests, &status, &a.MainGuestAttending, &a.Accompanists); err != nil {
			return nil, err
		}
		a.Status = domain.ReservationStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) query(ctx context.Context, where string, args []any) ([]reservationrepo.Reservation, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM reservations
		`+where+`
		ORDER BY created_at DESC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reservationrepo.Reservation, 0)
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getByID(ctx context.Context, q queryer, id uuid.UUID) (reservationrepo.Reservation, error) {
	row := q.QueryRow(ctx, `SELECT `+selectColumns+` FROM reservations WHERE id = $1`, id)
	return scanReservation(row)
}

func lockForCapacity(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `LOCK TABLE reservations IN SHARE ROW EXCLUSIVE MODE`)
	return err
}

// guestTotal sums guests across all reservations except skip.
func guestTotal(ctx context.Context, tx pgx.Tx, skip uuid.UUID) (int, error) {
	var total int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(number_of_guests), 0)::int
		FROM reservations
		WHERE id <> $1
	`, skip).Scan(&total)
	return total, err
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
		switch pe.ConstraintName {
		case "reservations_code_unique":
			return reservationrepo.ErrCodeTaken
		case "reservations_pkey":
			return reservationrepo.ErrAlreadyExists
		}
	}
	return err
}

func scanReservation(row interface {
	Scan(dest ...any) error
}) (reservationrepo.Reservation, error) {
	var (
		id               uuid.UUID
		code             string
		guestName        string
		numberOfGuests   int
		accompanistNames []string
		accompanists     []byte
		mainAttending    bool
		status           string
		table            *string
		group            *string
		notes            *string
		createdAt        time.Time
		updatedAt        time.Time
		checkedInAt      *time.Time
	)
	if err := row.Scan(
		&id,
		&code,
		&guestName,
		&numberOfGuests,
		&accompanistNames,
		&accompanists,
		&mainAttending,
		&status,
		&table,
		&group,
		&notes,
		&createdAt,
		&updatedAt,
		&checkedInAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
		}
		return reservationrepo.Reservation{}, err
	}
	if len(accompanistNames) == 0 {
		accompanistNames = nil
	}
	return reservationrepo.Reservation{
		ID:                 domain.ReservationID(id.String()),
		Code:               code,
		GuestName:          guestName,
		NumberOfGuests:     numberOfGuests,
		AccompanistNames:   accompanistNames,
		Accompanists:       accompanists,
		MainGuestAttending: mainAttending,
		Status:             domain.ReservationStatus(status),
		Table:              table,
		Group:              group,
		Notes:              notes,
		CreatedAt:          createdAt.UTC(),
		UpdatedAt:          updatedAt.UTC(),
		CheckedInAt:        utcPtr(checkedInAt),
	}, nil
}

func namesOrEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// jsonOrNull passes the document as text so jsonb parses it; nil maps to SQL NULL.
func jsonOrNull(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
