// Package session keeps the server-side record of a signed-in user and
// broadcasts session changes to interested parties.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const CookieName = "visadesk_session"

// DefaultTTL applies when the provider did not report an expiry.
const DefaultTTL = time.Hour

var ErrNotFound = errors.New("session not found")

// Session is the record behind the session cookie. Tokens never leave the server.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL is the remaining lifetime, never less than a second for a live session.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return DefaultTTL
	}
	ttl := s.ExpiresAt.Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteUser removes every session of a user and reports how many were removed.
	DeleteUser(ctx context.Context, userID string) (int, error)
}

// SetCookie writes the session cookie. maxAge <= 0 expires it.
func SetCookie(c *gin.Context, id string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, id, maxAge, "/", "", secure, true)
}

func ClearCookie(c *gin.Context, secure bool) {
	SetCookie(c, "", -1, secure)
}
