package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visadesk/visadesk/internal/auth"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/internal/web"
	"github.com/visadesk/visadesk/shared/middleware"
)

// PageHandler renders the server-side views. Templates are registered on the
// engine with SetHTMLTemplate(web.Templates()).
type PageHandler struct {
	auth           Authenticator
	sessions       middleware.SessionResolver
	publishableKey string
	secureCookies  bool
}

func NewPageHandler(a Authenticator, sessions middleware.SessionResolver, publishableKey string, secureCookies bool) *PageHandler {
	return &PageHandler{auth: a, sessions: sessions, publishableKey: publishableKey, secureCookies: secureCookies}
}

// Shell shows the auth view to anonymous callers and the app view otherwise.
func (h *PageHandler) Shell(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.HTML(http.StatusOK, web.AuthPage, nil)
		return
	}
	c.HTML(http.StatusOK, web.AppPage, web.AppData{Email: sess.Email, PublishableKey: h.publishableKey})
}

// Callback is the landing page of confirmation and recovery emails.
func (h *PageHandler) Callback(c *gin.Context) {
	if reason := c.Query("error_description"); reason != "" || c.Query("error") != "" {
		if reason == "" {
			reason = auth.MsgConfirmFailed
		}
		logrus.WithField("error", c.Query("error")).Warn("confirmation callback carried an error")
		h.renderCallback(c, http.StatusBadRequest, false, reason)
		return
	}

	ctx := c.Request.Context()
	var current *session.Session
	if id, err := c.Cookie(session.CookieName); err == nil {
		sess, err := h.sessions.Current(ctx, id)
		switch {
		case err == nil:
			current = sess
		case !errors.Is(err, session.ErrNotFound):
			logrus.WithError(err).Error("session lookup failed")
		}
	}

	sess, n, err := h.auth.ConfirmEmail(ctx, current, c.Query("token_hash"), c.Query("type"))
	if err != nil {
		h.renderCallback(c, upstreamStatus(err), false, n.Message)
		return
	}
	if sess != nil && sess != current {
		setSessionCookie(c, sess, h.secureCookies)
	}
	h.renderCallback(c, http.StatusOK, true, n.Message)
}

func (h *PageHandler) renderCallback(c *gin.Context, code int, success bool, message string) {
	c.HTML(code, web.CallbackPage, web.CallbackData{
		Success: success,
		Message: message,
		Delay:   web.CallbackRedirectDelay,
	})
}
