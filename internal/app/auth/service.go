// Package auth signs admins in and out. A session is a signed token plus a
// live entry in the session store; signing out removes the entry.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingpass/pass-api/internal/domain"
	"github.com/weddingpass/pass-api/internal/platform/auth/passwords"
	"github.com/weddingpass/pass-api/internal/platform/auth/tokens"
	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/events"
	"github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

type Admin struct {
	Email        string
	PasswordHash string
}

type Session struct {
	Token     string
	UserID    domain.SubjectID
	Email     string
	ExpiresAt time.Time
}

type Service struct {
	admins    map[string]string
	tokens    *tokens.Manager
	store     sessionstore.Store
	clk       clockport.Clock
	publisher events.Publisher
	log       *zap.Logger

	// Compared against when the email is unknown so both failures cost one bcrypt check.
	dummyHash string
}

func NewService(admins []Admin, tm *tokens.Manager, store sessionstore.Store, clk clockport.Clock, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	byEmail := make(map[string]string, len(admins))
	for _, a := range admins {
		byEmail[normalizeEmail(a.Email)] = a.PasswordHash
	}
	dummy, _ := passwords.Hash(uuid.NewString(), dummyCost(admins))
	return &Service{
		admins:    byEmail,
		tokens:    tm,
		store:     store,
		clk:       clk,
		publisher: publisher,
		log:       log,
		dummyHash: dummy,
	}
}

// dummyCost matches the cost of the first well-formed admin hash.
func dummyCost(admins []Admin) int {
	for _, a := range admins {
		if c, err := passwords.Cost(a.PasswordHash); err == nil {
			return c
		}
	}
	return passwords.DefaultCost
}

// UserIDForEmail derives the stable admin user id reported for an email.
func UserIDForEmail(email string) domain.SubjectID {
	return domain.SubjectID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("admin:"+normalizeEmail(email))).String())
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	hash, ok := s.admins[email]
	if !ok {
		passwords.Check(password, s.dummyHash)
		return Session{}, invalidCredentialsError()
	}
	if !passwords.Check(password, hash) {
		return Session{}, invalidCredentialsError()
	}

	userID := UserIDForEmail(email)
	token, claims, err := s.tokens.Issue(string(userID), email)
	if err != nil {
		return Session{}, gatewayError(err)
	}
	sess := Session{Token: token, UserID: userID, Email: email, ExpiresAt: claims.ExpiresAt.Time.UTC()}
	if err := s.store.Put(ctx, sessionstore.Session{
		ID:        claims.ID,
		Subject:   userID,
		Email:     email,
		ExpiresAt: sess.ExpiresAt,
	}); err != nil {
		return Session{}, gatewayError(err)
	}

	s.publish(ctx, events.SessionSignedIn, sessionEvent{UserID: string(userID), Email: email})
	return sess, nil
}

// Session returns the live session behind token.
func (s *Service) Session(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Session{}, unauthorizedError()
	}
	stored, ok, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return Session{}, gatewayError(err)
	}
	if !ok || string(stored.Subject) != claims.Subject {
		return Session{}, unauthorizedError()
	}
	return Session{Token: token, UserID: stored.Subject, Email: stored.Email, ExpiresAt: stored.ExpiresAt}, nil
}

// SignOut ends the session behind token. Signing out twice succeeds.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return unauthorizedError()
	}
	stored, ok, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return gatewayError(err)
	}
	if !ok {
		return nil
	}
	if err := s.store.Delete(ctx, claims.ID); err != nil {
		return gatewayError(err)
	}
	s.publish(ctx, events.SessionSignedOut, sessionEvent{UserID: string(stored.Subject), Email: stored.Email})
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Event) error { return nil }

type sessionEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (s *Service) publish(ctx context.Context, typ events.Type, data any) {
	if err := s.publisher.Publish(ctx, events.Event{Type: typ, OccurredAt: s.clk.Now(), Data: data}); err != nil {
		s.log.Warn("publish event failed", zap.String("type", string(typ)), zap.Error(err))
	}
}
