package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visadesk/visadesk/internal/auth"
	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/internal/session"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
)

// ---- mock implementations ----

type mockPreferencesCommander struct {
	toggleFn func(cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error)
}

func (m *mockPreferencesCommander) TogglePreference(_ context.Context, cmd cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error) {
	if m.toggleFn != nil {
		return m.toggleFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockPreferencesQuerier struct {
	getFn func(cqrs.PreferencesQuery) (*models.NotificationPreferences, error)
}

func (m *mockPreferencesQuerier) GetPreferences(_ context.Context, q cqrs.PreferencesQuery) (*models.NotificationPreferences, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newSettingsTestRouter(cmds PreferencesCommander, qrys PreferencesQuerier, a Authenticator, sess *session.Session) *gin.Engine {
	r := newTestEngine(sess)
	h := NewSettingsHandler(cmds, qrys, NewAuthHandler(a, false))
	v1 := r.Group("/v1/settings")
	v1.GET("/notifications", h.GetNotifications)
	v1.POST("/notifications/:key/toggle", h.ToggleNotification)
	v1.POST("/security/password", h.UpdatePassword)
	v1.POST("/security/signout-all", h.SignOutAll)
	return r
}

// ---- tests ----

func TestGetNotifications(t *testing.T) {
	qrys := &mockPreferencesQuerier{getFn: func(q cqrs.PreferencesQuery) (*models.NotificationPreferences, error) {
		prefs := models.DefaultNotificationPreferences()
		prefs.UserID = q.UserID
		return &prefs, nil
	}}
	router := newSettingsTestRouter(&mockPreferencesCommander{}, qrys, &mockAuthenticator{}, testSession)

	w := doRequest(router, http.MethodGet, "/v1/settings/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email_payment":true`)
	assert.Contains(t, w.Body.String(), `"push_payment":false`)
}

func TestToggleNotification(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		toggleFn       func(cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error)
		expectedStatus int
	}{
		{
			name: "success - flag flipped",
			key:  "push_expiry",
			toggleFn: func(cmd cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error) {
				prefs := models.DefaultNotificationPreferences()
				prefs.Toggle(cmd.Key)
				return &prefs, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - unknown key",
			key:  "sms_payment",
			toggleFn: func(cmd cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error) {
				return nil, command.ErrUnknownPreference
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "bad gateway - upsert failed",
			key:  "email_expiry",
			toggleFn: func(cmd cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error) {
				return nil, errUpstream
			},
			expectedStatus: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newSettingsTestRouter(&mockPreferencesCommander{toggleFn: tt.toggleFn}, &mockPreferencesQuerier{}, &mockAuthenticator{}, testSession)
			w := doRequest(router, http.MethodPost, "/v1/settings/notifications/"+tt.key+"/toggle", nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	valid := map[string]any{"newPassword": "secret12", "confirmPassword": "secret12"}
	tests := []struct {
		name             string
		body             any
		updatePasswordFn func(sess *session.Session, password, confirm string) (notice.Notice, error)
		expectedStatus   int
	}{
		{
			name: "success",
			body: valid,
			updatePasswordFn: func(sess *session.Session, password, confirm string) (notice.Notice, error) {
				return notice.Success(auth.MsgPasswordUpdated), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "bad request - passwords do not match",
			body: map[string]any{"newPassword": "secret12", "confirmPassword": "secret13"},
			updatePasswordFn: func(sess *session.Session, password, confirm string) (notice.Notice, error) {
				return notice.Error(auth.MsgPasswordMismatch), auth.ErrPasswordMismatch
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "too many requests",
			body: valid,
			updatePasswordFn: func(sess *session.Session, password, confirm string) (notice.Notice, error) {
				return notice.Error(auth.MsgRateLimited), errRateLimited
			},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name:           "bad request - too short",
			body:           map[string]any{"newPassword": "abc", "confirmPassword": "abc"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAuthenticator{updatePasswordFn: tt.updatePasswordFn}
			router := newSettingsTestRouter(&mockPreferencesCommander{}, &mockPreferencesQuerier{}, a, testSession)
			w := doRequest(router, http.MethodPost, "/v1/settings/security/password", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestSignOutAll(t *testing.T) {
	var gotScope string
	a := &mockAuthenticator{signOutFn: func(sess *session.Session, scope string) (notice.Notice, error) {
		gotScope = scope
		return notice.Success(auth.MsgSignedOutAll), nil
	}}
	router := newSettingsTestRouter(&mockPreferencesCommander{}, &mockPreferencesQuerier{}, a, testSession)

	w := doRequest(router, http.MethodPost, "/v1/settings/security/signout-all", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "global", gotScope)
	assert.NotNil(t, findCookie(w, session.CookieName))

	anonymous := newSettingsTestRouter(&mockPreferencesCommander{}, &mockPreferencesQuerier{}, a, nil)
	w = doRequest(anonymous, http.MethodPost, "/v1/settings/security/signout-all", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
