package query

import (
	"context"

	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/models"
)

type BillingReader interface {
	ListPrices(ctx context.Context) ([]models.Price, error)
	ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error)
}

type BillingQueryService struct {
	billing BillingReader
}

func NewBillingQueryService(billing BillingReader) *BillingQueryService {
	return &BillingQueryService{billing: billing}
}

func (s *BillingQueryService) ListPrices(ctx context.Context, _ cqrs.BillingQuery) ([]models.Price, error) {
	prices, err := s.billing.ListPrices(ctx)
	if err != nil {
		return nil, notFoundOr(ctx, "billing.prices", err)
	}
	return prices, nil
}

// ActiveSubscription returns nil, nil when there is none.
func (s *BillingQueryService) ActiveSubscription(ctx context.Context, q cqrs.BillingQuery) (*models.Subscription, error) {
	sub, err := s.billing.ActiveSubscription(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "billing.subscription", err)
	}
	return sub, nil
}

func (s *BillingQueryService) ListPaymentMethods(ctx context.Context, q cqrs.BillingQuery) ([]models.PaymentMethod, error) {
	methods, err := s.billing.ListPaymentMethods(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "billing.payment_methods", err)
	}
	return methods, nil
}

type PreferencesReader interface {
	Get(ctx context.Context, userID string) (*models.NotificationPreferences, error)
}

type PreferencesQueryService struct {
	preferences PreferencesReader
}

func NewPreferencesQueryService(preferences PreferencesReader) *PreferencesQueryService {
	return &PreferencesQueryService{preferences: preferences}
}

func (s *PreferencesQueryService) GetPreferences(ctx context.Context, q cqrs.PreferencesQuery) (*models.NotificationPreferences, error) {
	prefs, err := s.preferences.Get(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "preferences.get", err)
	}
	return prefs, nil
}
