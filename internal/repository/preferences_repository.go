package repository

import (
	"context"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/shared/models"
)

const preferencesTable = "notification_preferences"

type PreferencesRepository struct {
	client *backend.Client
}

func NewPreferencesRepository(client *backend.Client) *PreferencesRepository {
	return &PreferencesRepository{client: client}
}

// Get returns the user's preferences, or the defaults when no row exists yet.
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	resp, err := r.client.From(preferencesTable).
		Select("*").
		Eq("user_id", userID).
		Single().
		Execute(ctx)
	if backend.IsNoRows(err) {
		prefs := models.DefaultNotificationPreferences()
		prefs.UserID = userID
		return &prefs, nil
	}
	if err != nil {
		return nil, err
	}

	var prefs models.NotificationPreferences
	if err := resp.Decode(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Save writes the whole row, creating it on first use.
func (r *PreferencesRepository) Save(ctx context.Context, prefs *models.NotificationPreferences) error {
	_, err := r.client.From(preferencesTable).Upsert(ctx, prefs, "user_id")
	return err
}
