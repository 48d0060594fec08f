package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthConfig configures admin sign-in.
//
// In "session" mode admins sign in with email and password and receive an HS256 token.
// In "dev" mode every admin request is attributed to X-Debug-Subject (or DevSubject).
type AuthConfig struct {
	Mode       string        `mapstructure:"mode"`
	DevSubject string        `mapstructure:"dev_subject"`
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	Admins []AdminAccount `mapstructure:"admins"`

	// Single admin from the environment (AUTH_ADMIN_EMAIL / AUTH_ADMIN_PASSWORD_HASH),
	// appended to Admins by AllAdmins.
	AdminEmail        string `mapstructure:"admin_email"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

type AdminAccount struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
}

// AllAdmins returns the configured accounts with emails lower-cased.
func (c AuthConfig) AllAdmins() []AdminAccount {
	out := make([]AdminAccount, 0, len(c.Admins)+1)
	for _, a := range c.Admins {
		out = append(out, AdminAccount{Email: strings.ToLower(strings.TrimSpace(a.Email)), PasswordHash: a.PasswordHash})
	}
	if c.AdminEmail != "" {
		out = append(out, AdminAccount{Email: strings.ToLower(strings.TrimSpace(c.AdminEmail)), PasswordHash: c.AdminPasswordHash})
	}
	return out
}

func (c AuthConfig) Validate() error {
	switch c.Mode {
	case "dev":
		return nil
	case "session":
	default:
		return fmt.Errorf("auth.mode must be session or dev, got %q", c.Mode)
	}
	if len(c.SigningKey) < 32 {
		return errors.New("auth.signing_key (AUTH_SIGNING_KEY) must be at least 32 bytes in session mode")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be a positive duration (e.g. 12h), got %s", c.SessionTTL)
	}
	admins := c.AllAdmins()
	if len(admins) == 0 {
		return errors.New("at least one admin account is required in session mode (auth.admins or AUTH_ADMIN_EMAIL)")
	}
	for _, a := range admins {
		if a.Email == "" || a.PasswordHash == "" {
			return errors.New("admin accounts need both email and password_hash")
		}
	}
	return nil
}
