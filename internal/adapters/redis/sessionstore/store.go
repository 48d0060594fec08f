package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weddingpass/pass-api/internal/domain"
	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

const keyPrefix = "session:"

// Store is a Redis implementation of sessionstore.Store. Each session is one key
// whose TTL matches the session expiry, so Redis drops expired sessions itself.
type Store struct {
	client *redis.Client
	clk    clockport.Clock
}

func NewStore(client *redis.Client, clk clockport.Clock) *Store {
	return &Store{client: client, clk: clk}
}

type storedSession struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
}

func (s *Store) Put(ctx context.Context, sess sessionstore.Session) error {
	if s.client == nil {
		return errors.New("nil redis client")
	}
	ttl := sess.ExpiresAt.Sub(s.clk.Now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(storedSession{
		Subject:   string(sess.Subject),
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+sess.ID, b, ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (sessionstore.Session, bool, error) {
	if s.client == nil {
		return sessionstore.Session{}, false, errors.New("nil redis client")
	}
	val, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return sessionstore.Session{}, false, nil
	}
	if err != nil {
		return sessionstore.Session{}, false, err
	}
	var stored storedSession
	if err := json.Unmarshal(val, &stored); err != nil {
		return sessionstore.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	if !s.clk.Now().Before(stored.ExpiresAt) {
		return sessionstore.Session{}, false, nil
	}
	return sessionstore.Session{
		ID:        id,
		Subject:   domain.SubjectID(stored.Subject),
		Email:     stored.Email,
		ExpiresAt: stored.ExpiresAt,
	}, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if s.client == nil {
		return errors.New("nil redis client")
	}
	return s.client.Del(ctx, keyPrefix+id).Err()
}
