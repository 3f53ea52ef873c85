package repository

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/payment"
	"github.com/visadesk/visadesk/shared/models"
	sharedredis "github.com/visadesk/visadesk/shared/redis"
)

const (
	pricesTable         = "prices"
	subscriptionsTable  = "subscriptions"
	paymentMethodsTable = "payment_methods"

	fnCreateCheckoutSession = "create-checkout-session"
	fnCreateSetupIntent     = "create-setup-intent"
	fnCancelSubscription    = "cancel-subscription"
	fnUpdatePaymentMethod   = "update-payment-method"

	pricesCacheTTL = 5 * time.Minute
)

var pricesCacheKey = sharedredis.Key("prices", "list")

// BillingRepository reads billing tables and calls the billing functions.
// Prices are the same for every user and are cached when Redis is available.
type BillingRepository struct {
	client *backend.Client
	prices *sharedredis.ViewCache[[]models.Price]
}

// NewBillingRepository accepts a nil redis client, in which case nothing is cached.
func NewBillingRepository(client *backend.Client, redisClient goredis.Cmdable) *BillingRepository {
	r := &BillingRepository{client: client}
	if redisClient != nil {
		r.prices = sharedredis.NewViewCache[[]models.Price](redisClient, pricesCacheTTL)
	}
	return r
}

func (r *BillingRepository) ListPrices(ctx context.Context) ([]models.Price, error) {
	if cached, ok := r.prices.Get(ctx, pricesCacheKey); ok {
		return *cached, nil
	}

	resp, err := r.client.From(pricesTable).Select("*").Order("unit_amount", true).Execute(ctx)
	if err != nil {
		return nil, err
	}
	prices := []models.Price{}
	if err := resp.Decode(&prices); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	r.prices.Set(ctx, pricesCacheKey, &prices)
	return prices, nil
}

// ActiveSubscription returns nil when the user has no active subscription.
func (r *BillingRepository) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	q := r.client.From(subscriptionsTable).Select("*").Eq("status", "active")
	if userID != "" {
		q = q.Eq("user_id", userID)
	}
	resp, err := q.Limit(1).Single().Execute(ctx)
	if backend.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sub models.Subscription
	if err := resp.Decode(&sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *BillingRepository) ListPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	q := r.client.From(paymentMethodsTable).Select("*").Order("created_at", false)
	if userID != "" {
		q = q.Eq("user_id", userID)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	methods := []models.PaymentMethod{}
	if err := resp.Decode(&methods); err != nil {
		return nil, fmt.Errorf("decode payment methods: %w", err)
	}
	return methods, nil
}

func (r *BillingRepository) CreateCheckoutSession(ctx context.Context, priceID string) (payment.CheckoutSession, error) {
	resp, err := r.client.Functions().Invoke(ctx, fnCreateCheckoutSession, map[string]string{"priceId": priceID})
	if err != nil {
		return payment.CheckoutSession{}, err
	}
	return payment.CheckoutSession{
		ID:  resp.Get("id").String(),
		URL: resp.Get("url").String(),
	}, nil
}

// CreateSetupIntent returns the client secret of a new card setup intent.
func (r *BillingRepository) CreateSetupIntent(ctx context.Context) (string, error) {
	resp, err := r.client.Functions().Invoke(ctx, fnCreateSetupIntent, nil)
	if err != nil {
		return "", err
	}
	secret := resp.Get("client_secret").String()
	if secret == "" {
		secret = resp.Get("clientSecret").String()
	}
	return secret, nil
}

func (r *BillingRepository) CancelSubscription(ctx context.Context, subscriptionID string) error {
	_, err := r.client.Functions().Invoke(ctx, fnCancelSubscription, map[string]string{"subscriptionId": subscriptionID})
	return err
}

func (r *BillingRepository) UpdatePaymentMethod(ctx context.Context, paymentMethodID string) error {
	_, err := r.client.Functions().Invoke(ctx, fnUpdatePaymentMethod, map[string]string{"paymentMethodId": paymentMethodID})
	return err
}
