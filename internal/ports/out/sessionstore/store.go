package sessionstore

import (
	"context"
	"time"

	"github.com/weddingpass/pass-api/internal/domain"
)

// Session is an admin sign-in session, keyed by the token's jti.
type Session struct {
	ID        string
	Subject   domain.SubjectID
	Email     string
	ExpiresAt time.Time
}

// Store keeps live sessions until they expire or are deleted on sign-out.
// Implementations: Redis (multi-instance) or in-memory (single instance, tests).
type Store interface {
	Put(ctx context.Context, s Session) error
	// Get returns ok=false for unknown or expired sessions.
	Get(ctx context.Context, id string) (Session, bool, error)
	Delete(ctx context.Context, id string) error
}
