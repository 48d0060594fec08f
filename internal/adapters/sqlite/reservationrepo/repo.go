package reservationrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weddingpass/pass-api/internal/adapters/sqlite"
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

// Repo is a SQLite implementation of reservationrepo.Repository.
// Accompanists are stored as TEXT exactly as given, so undecodable legacy
// documents survive a round trip.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, rec reservationrepo.Reservation, maxCapacity int) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	if rec.ID == "" {
		return errors.New("empty reservation id")
	}
	names, err := encodeNames(rec.AccompanistNames)
	if err != nil {
		return err
	}

	return sqlite.InTx(ctx, r.db, func(tx *sql.Tx) error {
		used, err := guestTotal(ctx, tx, "")
		if err != nil {
			return err
		}
		if used+rec.NumberOfGuests > maxCapacity {
			return reservationrepo.ErrCapacityExceeded
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reservations (`+selectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			string(rec.ID),
			rec.Code,
			rec.GuestName,
			rec.NumberOfGuests,
			names,
			rawOrNull(rec.Accompanists),
			rec.MainGuestAttending,
			string(rec.Status),
			sqlite.NullString(rec.Table),
			sqlite.NullString(rec.Group),
			sqlite.NullString(rec.Notes),
			sqlite.FormatTime(rec.CreatedAt),
			sqlite.FormatTime(rec.UpdatedAt),
			sqlite.FormatTimePtr(rec.CheckedInAt),
		)
		return mapWriteError(err)
	})
}

func (r *Repo) Update(ctx context.Context, rec reservationrepo.Reservation, maxCapacity *int) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	names, err := encodeNames(rec.AccompanistNames)
	if err != nil {
		return err
	}

	return sqlite.InTx(ctx, r.db, func(tx *sql.Tx) error {
		existing, err := getByID(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		if existing.Status == domain.ReservationStatusCheckedIn && rec.Status != domain.ReservationStatusCheckedIn {
			return reservationrepo.ErrAlreadyCheckedIn
		}
		if maxCapacity != nil {
			used, err := guestTotal(ctx, tx, rec.ID)
			if err != nil {
				return err
			}
			if used+rec.NumberOfGuests > *maxCapacity {
				return reservationrepo.ErrCapacityExceeded
			}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE reservations
			SET code = ?,
			    guest_name = ?,
			    number_of_guests = ?,
			    accompanist_names = ?,
			    accompanists = ?,
			    main_guest_attending = ?,
			    status = ?,
			    table_name = ?,
			    group_name = ?,
			    notes = ?,
			    updated_at = ?,
			    checked_in_at = ?
			WHERE id = ? AND (? = ? OR status <> ?)
		`,
			rec.Code,
			rec.GuestName,
			rec.NumberOfGuests,
			names,
			rawOrNull(rec.Accompanists),
			rec.MainGuestAttending,
			string(rec.Status),
			sqlite.NullString(rec.Table),
			sqlite.NullString(rec.Group),
			sqlite.NullString(rec.Notes),
			sqlite.FormatTime(rec.UpdatedAt),
			sqlite.FormatTimePtr(rec.CheckedInAt),
			string(rec.ID),
			string(rec.Status),
			string(domain.ReservationStatusCheckedIn),
			string(domain.ReservationStatusCheckedIn),
		)
		if err != nil {
			return mapWriteError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return reservationrepo.ErrAlreadyCheckedIn
		}
		return nil
	})
}

func (r *Repo) MarkCheckedIn(ctx context.Context, id domain.ReservationID, at time.Time) (reservationrepo.Reservation, error) {
	if r.db == nil {
		return reservationrepo.Reservation{}, errors.New("nil sqlite db")
	}
	var out reservationrepo.Reservation
	err := sqlite.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reservations
			SET status = ?, checked_in_at = ?, updated_at = ?
			WHERE id = ? AND status <> ?
		`,
			string(domain.ReservationStatusCheckedIn),
			sqlite.FormatTime(at),
			sqlite.FormatTime(at),
			string(id),
			string(domain.ReservationStatusCheckedIn),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		rec, err := getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return reservationrepo.ErrAlreadyCheckedIn
		}
		out = rec
		return nil
	})
	if err != nil {
		return reservationrepo.Reservation{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ReservationID) error {
	if r.db == nil {
		return errors.New("nil sqlite db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, string(id))
	return err
}

func (r *Repo) GetByID(ctx context.Context, id domain.ReservationID) (reservationrepo.Reservation, error) {
	if r.db == nil {
		return reservationrepo.Reservation{}, errors.New("nil sqlite db")
	}
	return getByID(ctx, r.db, id)
}

func (r *Repo) GetByCode(ctx context.Context, code string) (reservationrepo.Reservation, error) {
	if r.db == nil {
		return reservationrepo.Reservation{}, errors.New("nil sqlite db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reservations WHERE code = ?`, code)
	return scanReservation(row)
}

func (r *Repo) List(ctx context.Context) ([]reservationrepo.Reservation, error) {
	return r.query(ctx, "")
}

func (r *Repo) Search(ctx context.Context, query string) ([]reservationrepo.Reservation, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return r.query(ctx, `
		WHERE lower(guest_name) LIKE ? ESCAPE '\'
		   OR lower(code) LIKE ? ESCAPE '\'
		   OR lower(group_name) LIKE ? ESCAPE '\'
	`, pattern, pattern, pattern)
}

func (r *Repo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]reservationrepo.Reservation, error) {
	return r.query(ctx, `WHERE status = ?`, string(status))
}

func (r *Repo) ListAttendance(ctx context.Context) ([]reservationrepo.Attendance, error) {
	if r.db == nil {
		return nil, errors.New("nil sqlite db")
	}
	rows, err := r.db.QueryContext(ctx, `
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
			a            reservationrepo.Attendance
			status       string
			accompanists sql.NullString
		)
		if err := rows.Scan(&a.NumberOfGuests, &status, &a.MainGuestAttending, &accompanists); err != nil {
			return nil, err
		}
		a.Status = domain.ReservationStatus(status)
		a.Accompanists = rawBytes(accompanists)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) query(ctx context.Context, where string, args ...any) ([]reservationrepo.Reservation, error) {
	if r.db == nil {
		return nil, errors.New("nil sqlite db")
	}
	rows, err := r.db.QueryContext(ctx, `
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryer, id domain.ReservationID) (reservationrepo.Reservation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reservations WHERE id = ?`, string(id))
	return scanReservation(row)
}

// guestTotal sums guests across all reservations except skip.
func guestTotal(ctx context.Context, tx *sql.Tx, skip domain.ReservationID) (int, error) {
	var total int
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(number_of_guests), 0)
		FROM reservations
		WHERE id <> ?
	`, string(skip)).Scan(&total)
	return total, err
}

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case sqlite.IsUniqueViolation(err, "reservations.code"):
		return reservationrepo.ErrCodeTaken
	case sqlite.IsUniqueViolation(err, "reservations.id"):
		return reservationrepo.ErrAlreadyExists
	default:
		return err
	}
}

func scanReservation(row interface {
	Scan(dest ...any) error
}) (reservationrepo.Reservation, error) {
	var (
		rec          reservationrepo.Reservation
		id           string
		names        string
		accompanists sql.NullString
		status       string
		table        sql.NullString
		group        sql.NullString
		notes        sql.NullString
		createdAt    string
		updatedAt    string
		checkedInAt  sql.NullString
	)
	if err := row.Scan(
		&id,
		&rec.Code,
		&rec.GuestName,
		&rec.NumberOfGuests,
		&names,
		&accompanists,
		&rec.MainGuestAttending,
		&status,
		&table,
		&group,
		&notes,
		&createdAt,
		&updatedAt,
		&checkedInAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return reservationrepo.Reservation{}, reservationrepo.ErrNotFound
		}
		return reservationrepo.Reservation{}, err
	}

	var err error
	if rec.AccompanistNames, err = decodeNames(names); err != nil {
		return reservationrepo.Reservation{}, err
	}
	if rec.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return reservationrepo.Reservation{}, err
	}
	if rec.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return reservationrepo.Reservation{}, err
	}
	if rec.CheckedInAt, err = sqlite.ParseTimePtr(checkedInAt); err != nil {
		return reservationrepo.Reservation{}, err
	}
	rec.ID = domain.ReservationID(id)
	rec.Accompanists = rawBytes(accompanists)
	rec.Status = domain.ReservationStatus(status)
	rec.Table = sqlite.StringPtr(table)
	rec.Group = sqlite.StringPtr(group)
	rec.Notes = sqlite.StringPtr(notes)
	return rec, nil
}

func encodeNames(names []string) (string, error) {
	if len(names) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encode accompanist names: %w", err)
	}
	return string(b), nil
}

func decodeNames(s string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, fmt.Errorf("decode accompanist names: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

func rawOrNull(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func rawBytes(s sql.NullString) []byte {
	if !s.Valid {
		return nil
	}
	return []byte(s.String)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
