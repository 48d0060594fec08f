// Package tokens issues and verifies admin session tokens (HS256 JWTs).
// A token is only half of a session: callers must also find its ID in the session store.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Claims are the registered claims plus the admin email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type Manager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clockSkew  time.Duration
	clock      Clock
}

func NewManager(signingKey, issuer string, ttl time.Duration, clock Clock) *Manager {
	if clock == nil {
		clock = realClock{}
	}
	return &Manager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clockSkew:  30 * time.Second,
		clock:      clock,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject. The returned claims carry the token ID (jti) and expiry.
func (m *Manager) Issue(subject, email string) (string, Claims, error) {
	now := m.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}

// Verify checks signature, issuer, exp and nbf. Every failure is reported as ErrUnauthorized.
func (m *Manager) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrUnauthorized
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrUnauthorized
	}
	return claims, nil
}
