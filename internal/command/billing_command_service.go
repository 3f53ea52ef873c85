package command

import (
	"context"

	"github.com/visadesk/visadesk/internal/payment"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/events"
)

// BillingGateway calls the backend functions that talk to the payment provider.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, priceID string) (payment.CheckoutSession, error)
	CreateSetupIntent(ctx context.Context) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	UpdatePaymentMethod(ctx context.Context, paymentMethodID string) error
}

// PaymentFlow turns function results into browser-side payment steps.
type PaymentFlow interface {
	CheckoutRedirect(s payment.CheckoutSession) (string, error)
	SetupConfirmation(clientSecret string) (*payment.SetupConfirmation, error)
}

type BillingCommandService struct {
	gateway   BillingGateway
	payments  PaymentFlow
	publisher EventPublisher
}

func NewBillingCommandService(gateway BillingGateway, payments PaymentFlow, publisher EventPublisher) *BillingCommandService {
	return &BillingCommandService{gateway: gateway, payments: payments, publisher: publisher}
}

// StartCheckout returns the URL the browser must follow to pay.
func (s *BillingCommandService) StartCheckout(ctx context.Context, cmd cqrs.StartCheckoutCommand) (string, error) {
	if blank(cmd.PriceID) {
		return "", ErrMissingRequired
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, cmd.PriceID)
	if err != nil {
		logFailure(ctx, "functions.create-checkout-session", err)
		return "", err
	}
	redirect, err := s.payments.CheckoutRedirect(session)
	if err != nil {
		logFailure(ctx, "payment.checkout_redirect", err)
		return "", err
	}

	publish(ctx, s.publisher, events.CheckoutStarted, events.BillingEvent{UserID: cmd.UserID, Resource: cmd.PriceID})
	return redirect, nil
}

func (s *BillingCommandService) AddPaymentMethod(ctx context.Context, cmd cqrs.AddPaymentMethodCommand) (*payment.SetupConfirmation, error) {
	secret, err := s.gateway.CreateSetupIntent(ctx)
	if err != nil {
		logFailure(ctx, "functions.create-setup-intent", err)
		return nil, err
	}
	confirmation, err := s.payments.SetupConfirmation(secret)
	if err != nil {
		logFailure(ctx, "payment.setup_confirmation", err)
		return nil, err
	}
	return confirmation, nil
}

func (s *BillingCommandService) CancelSubscription(ctx context.Context, cmd cqrs.CancelSubscriptionCommand) error {
	if blank(cmd.SubscriptionID) {
		return ErrMissingRequired
	}
	if err := s.gateway.CancelSubscription(ctx, cmd.SubscriptionID); err != nil {
		logFailure(ctx, "functions.cancel-subscription", err)
		return err
	}
	publish(ctx, s.publisher, events.SubscriptionCancelled, events.BillingEvent{UserID: cmd.UserID, Resource: cmd.SubscriptionID})
	return nil
}

func (s *BillingCommandService) UpdatePaymentMethod(ctx context.Context, cmd cqrs.UpdatePaymentMethodCommand) error {
	if blank(cmd.PaymentMethodID) {
		return ErrMissingRequired
	}
	if err := s.gateway.UpdatePaymentMethod(ctx, cmd.PaymentMethodID); err != nil {
		logFailure(ctx, "functions.update-payment-method", err)
		return err
	}
	publish(ctx, s.publisher, events.PaymentMethodUpdated, events.BillingEvent{UserID: cmd.UserID, Resource: cmd.PaymentMethodID})
	return nil
}
