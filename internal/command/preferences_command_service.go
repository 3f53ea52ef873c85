package command

import (
	"context"

	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/events"
	"github.com/visadesk/visadesk/shared/models"
)

type PreferencesStore interface {
	Get(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	Save(ctx context.Context, prefs *models.NotificationPreferences) error
}

type PreferencesCommandService struct {
	preferences PreferencesStore
	publisher   EventPublisher
}

func NewPreferencesCommandService(preferences PreferencesStore, publisher EventPublisher) *PreferencesCommandService {
	return &PreferencesCommandService{preferences: preferences, publisher: publisher}
}

// TogglePreference flips one flag and saves the whole row immediately.
func (s *PreferencesCommandService) TogglePreference(ctx context.Context, cmd cqrs.TogglePreferenceCommand) (*models.NotificationPreferences, error) {
	probe := models.DefaultNotificationPreferences()
	if !probe.Toggle(cmd.Key) {
		return nil, ErrUnknownPreference
	}

	prefs, err := s.preferences.Get(ctx, cmd.UserID)
	if err != nil {
		logFailure(ctx, "preferences.get", err)
		return nil, err
	}
	prefs.UserID = cmd.UserID
	prefs.Toggle(cmd.Key)

	if err := s.preferences.Save(ctx, prefs); err != nil {
		logFailure(ctx, "preferences.save", err)
		return nil, err
	}

	publish(ctx, s.publisher, events.PreferencesUpdated, events.PreferencesUpdatedEvent{
		UserID: cmd.UserID,
		Key:    cmd.Key,
		Value:  prefs.Value(cmd.Key),
	})
	return prefs, nil
}
