package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/internal/session"
)

const (
	userIDKey  = "userId"
	emailKey   = "email"
	sessionKey = "session"
)

// Claims are the identity provider's access token claims. The user id is the subject.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type SessionResolver interface {
	Current(ctx context.Context, id string) (*session.Session, error)
}

// UserLookup validates a bearer token with the provider when no signing
// secret is configured.
type UserLookup interface {
	GetUser(ctx context.Context, accessToken string) (*backend.User, error)
}

type AuthConfig struct {
	Sessions  SessionResolver
	Users     UserLookup
	JWTSecret []byte
}

var errInvalidToken = errors.New("invalid or expired token")

func (cfg AuthConfig) verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return cfg.JWTSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (cfg AuthConfig) fromBearer(ctx context.Context, tokenString string) (*session.Session, error) {
	if len(cfg.JWTSecret) > 0 {
		claims, err := cfg.verify(tokenString)
		if err != nil {
			return nil, err
		}
		sess := &session.Session{UserID: claims.Subject, Email: claims.Email, AccessToken: tokenString}
		if claims.ExpiresAt != nil {
			sess.ExpiresAt = claims.ExpiresAt.Time
		}
		return sess, nil
	}

	if cfg.Users == nil {
		return nil, errInvalidToken
	}
	user, err := cfg.Users.GetUser(ctx, tokenString)
	if err != nil {
		return nil, errInvalidToken
	}
	return &session.Session{UserID: user.ID, Email: user.Email, AccessToken: tokenString}, nil
}

func (cfg AuthConfig) resolve(c *gin.Context) (*session.Session, error) {
	ctx := c.Request.Context()
	authHeader := c.GetHeader("Authorization")

	if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
		sess, err := cfg.Sessions.Current(ctx, id)
		switch {
		case errors.Is(err, session.ErrNotFound) && authHeader != "":
			// Stale cookie; the bearer token below decides.
		case err != nil:
			return nil, err
		default:
			if len(cfg.JWTSecret) > 0 {
				if _, err := cfg.verify(sess.AccessToken); err != nil {
					return nil, err
				}
			}
			return sess, nil
		}
	}

	if authHeader == "" {
		return nil, session.ErrNotFound
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errInvalidToken
	}
	return cfg.fromBearer(ctx, parts[1])
}

// AuthMiddleware resolves the caller's session from the session cookie or a
// bearer token. With required unset, anonymous requests pass through.
func AuthMiddleware(cfg AuthConfig, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := cfg.resolve(c)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, errInvalidToken) {
				logrus.WithError(err).Error("session lookup failed")
			}
			if required {
				c.JSON(http.StatusUnauthorized, gin.H{
					"message": "Authentication required",
				})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		ctx := backend.ContextWithAccessToken(c.Request.Context(), sess.AccessToken)
		ctx = logging.WithFields(ctx, logrus.Fields{"user_id": sess.UserID})
		c.Request = c.Request.WithContext(ctx)

		c.Set(userIDKey, sess.UserID)
		c.Set(emailKey, sess.Email)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	return userID.(string), true
}

func GetSession(c *gin.Context) (*session.Session, bool) {
	sess, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	return sess.(*session.Session), true
}
