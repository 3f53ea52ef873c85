package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visadesk/visadesk/internal/auth"
	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
)

type PreferencesCommander interface {
	TogglePreference(context.Context, cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error)
}

type PreferencesQuerier interface {
	GetPreferences(context.Context, cqrs.PreferencesQuery) (*models.NotificationPreferences, error)
}

// SettingsHandler serves notification preferences and account security.
type SettingsHandler struct {
	commands PreferencesCommander
	queries  PreferencesQuerier
	account  *AuthHandler
}

type UpdatePasswordRequest struct {
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func NewSettingsHandler(commands PreferencesCommander, queries PreferencesQuerier, account *AuthHandler) *SettingsHandler {
	return &SettingsHandler{commands: commands, queries: queries, account: account}
}

func (h *SettingsHandler) GetNotifications(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	prefs, err := h.queries.GetPreferences(c.Request.Context(), cqrs.PreferencesQuery{UserID: userID})
	if err != nil {
		failWith(c, err, "Error loading notification preferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prefs})
}

func (h *SettingsHandler) ToggleNotification(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	prefs, err := h.commands.TogglePreference(c.Request.Context(), cqrs.TogglePreferenceCommand{
		UserID: userID,
		Key:    c.Param("key"),
	})
	if err != nil {
		if errors.Is(err, command.ErrUnknownPreference) {
			middleware.RespondWithError(c, http.StatusNotFound, "Unknown notification preference")
			return
		}
		failWith(c, err, "Error updating preferences")
		return
	}

	n := notice.Success("Preferences updated")
	middleware.RespondWithData(c, http.StatusOK, prefs, &n)
}

func (h *SettingsHandler) UpdatePassword(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.account.auth.UpdatePassword(c.Request.Context(), sess, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		status := upstreamStatus(err)
		if errors.Is(err, auth.ErrPasswordMismatch) {
			status = http.StatusBadRequest
		}
		middleware.RespondWithNotice(c, status, n)
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, n)
}

// SignOutAll revokes every session of the caller, this one included.
func (h *SettingsHandler) SignOutAll(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	h.account.signOut(c, sess, backend.ScopeGlobal)
}
