package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/weddingpass/pass-api/internal/adapters/sqlite"
	"github.com/weddingpass/pass-api/internal/ports/out/idempotency"
)

// Store is a SQLite implementation of idempotency.Store.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.db == nil {
		return idempotency.Record{}, false, errors.New("nil sqlite db")
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT status_code, content_type, body, created_at
		FROM idempotency_keys
		WHERE idempotency_key = ?
		  AND subject = ?
		  AND method = ?
		  AND route = ?
		  AND body_hash = ?
	`,
		string(fp.Key),
		string(fp.Subject),
		fp.Method,
		fp.Route,
		fp.BodyHash,
	)
	var (
		rec       idempotency.Record
		createdAt string
	)
	if err := row.Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	t, err := sqlite.ParseTime(createdAt)
	if err != nil {
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = t
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.db == nil {
		return errors.New("nil sqlite db")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	body := rec.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (
			idempotency_key,
			subject,
			method,
			route,
			body_hash,
			status_code,
			content_type,
			body,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (idempotency_key, subject, method, route, body_hash)
		DO UPDATE SET
			status_code = excluded.status_code,
			content_type = excluded.content_type,
			body = excluded.body,
			created_at = excluded.created_at
	`,
		string(fp.Key),
		string(fp.Subject),
		fp.Method,
		fp.Route,
		fp.BodyHash,
		rec.StatusCode,
		rec.ContentType,
		body,
		sqlite.FormatTime(createdAt),
	)
	return err
}
