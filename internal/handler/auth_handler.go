package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visadesk/visadesk/internal/auth"
	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/notice"
)

// Authenticator is the identity flow used by AuthHandler, SettingsHandler and PageHandler.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*session.Session, notice.Notice, error)
	SignUp(ctx context.Context, email, password, confirm string) (*session.Session, notice.Notice, error)
	ResetPassword(ctx context.Context, email string) (notice.Notice, error)
	SignOut(ctx context.Context, sess *session.Session, scope string) (notice.Notice, error)
	UpdatePassword(ctx context.Context, sess *session.Session, password, confirm string) (notice.Notice, error)
	ConfirmEmail(ctx context.Context, current *session.Session, tokenHash, otpType string) (*session.Session, notice.Notice, error)
}

type AuthHandler struct {
	auth          Authenticator
	secureCookies bool
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SignOutRequest struct {
	Scope string `json:"scope" validate:"omitempty,oneof=local global"`
}

type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

func NewAuthHandler(a Authenticator, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: a, secureCookies: secureCookies}
}

// credentialStatus maps a failed sign-in or sign-up to a status. Provider
// rejections are the caller's fault; anything else is ours.
func credentialStatus(err error, rejected int) int {
	if backend.IsRateLimited(err) {
		return http.StatusTooManyRequests
	}
	if _, ok := backend.AsError(err); ok {
		return rejected
	}
	return http.StatusInternalServerError
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, n, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondWithNotice(c, credentialStatus(err, http.StatusUnauthorized), n)
		return
	}

	setSessionCookie(c, sess, h.secureCookies)
	user := userOf(sess)
	middleware.RespondWithData(c, http.StatusOK, user, &n)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, n, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			middleware.RespondWithNotice(c, http.StatusBadRequest, n)
			return
		}
		middleware.RespondWithNotice(c, credentialStatus(err, http.StatusBadRequest), n)
		return
	}

	if sess == nil {
		middleware.RespondWithNotice(c, http.StatusCreated, n)
		return
	}
	setSessionCookie(c, sess, h.secureCookies)
	user := userOf(sess)
	middleware.RespondWithData(c, http.StatusCreated, user, &n)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.auth.ResetPassword(c.Request.Context(), req.Email)
	if err != nil {
		middleware.RespondWithNotice(c, upstreamStatus(err), n)
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, n)
}

// SignOut accepts an optional {"scope": "global"} body.
func (h *AuthHandler) SignOut(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req SignOutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	h.signOut(c, sess, req.Scope)
}

func (h *AuthHandler) signOut(c *gin.Context, sess *session.Session, scope string) {
	n, err := h.auth.SignOut(c.Request.Context(), sess, scope)
	session.ClearCookie(c, h.secureCookies)
	if err != nil {
		middleware.RespondWithNotice(c, upstreamStatus(err), n)
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, n)
}

func (h *AuthHandler) CurrentSession(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": SessionResponse{}})
		return
	}
	user := userOf(sess)
	c.JSON(http.StatusOK, gin.H{"data": SessionResponse{Authenticated: true, User: &user}})
}
