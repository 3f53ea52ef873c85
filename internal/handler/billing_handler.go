package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visadesk/visadesk/internal/command"
	"github.com/visadesk/visadesk/internal/payment"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/middleware"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
)

type BillingCommander interface {
	StartCheckout(context.Context, cqrs.StartCheckoutCommand) (string, error)
	AddPaymentMethod(context.Context, cqrs.AddPaymentMethodCommand) (*payment.SetupConfirmation, error)
	CancelSubscription(context.Context, cqrs.CancelSubscriptionCommand) error
	UpdatePaymentMethod(context.Context, cqrs.UpdatePaymentMethodCommand) error
}

type BillingQuerier interface {
	ListPrices(context.Context, cqrs.BillingQuery) ([]models.Price, error)
	ActiveSubscription(context.Context, cqrs.BillingQuery) (*models.Subscription, error)
	ListPaymentMethods(context.Context, cqrs.BillingQuery) ([]models.PaymentMethod, error)
}

type BillingHandler struct {
	commands BillingCommander
	queries  BillingQuerier
}

type CheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

type CheckoutResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

func NewBillingHandler(commands BillingCommander, queries BillingQuerier) *BillingHandler {
	return &BillingHandler{commands: commands, queries: queries}
}

func billingQuery(c *gin.Context) cqrs.BillingQuery {
	userID, _ := middleware.GetUserID(c)
	return cqrs.BillingQuery{UserID: userID}
}

// failBilling also covers a misconfigured payment provider, which is never
// the caller's fault.
func failBilling(c *gin.Context, err error, message string) {
	if errors.Is(err, command.ErrMissingRequired) {
		middleware.RespondWithNotice(c, http.StatusBadRequest, notice.Error(message))
		return
	}
	failWith(c, err, message)
}

func (h *BillingHandler) ListPrices(c *gin.Context) {
	prices, err := h.queries.ListPrices(c.Request.Context(), billingQuery(c))
	if err != nil {
		failWith(c, err, "Error loading prices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prices})
}

// GetSubscription answers {"data": null} when the caller has no active plan.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	sub, err := h.queries.ActiveSubscription(c.Request.Context(), billingQuery(c))
	if err != nil {
		failWith(c, err, "Error loading subscription data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (h *BillingHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.queries.ListPaymentMethods(c.Request.Context(), billingQuery(c))
	if err != nil {
		failWith(c, err, "Error loading payment methods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": methods})
}

func (h *BillingHandler) StartCheckout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	redirect, err := h.commands.StartCheckout(c.Request.Context(), cqrs.StartCheckoutCommand{
		UserID:  userID,
		PriceID: req.PriceID,
	})
	if err != nil {
		failBilling(c, err, "Error creating the checkout session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": CheckoutResponse{RedirectURL: redirect}})
}

func (h *BillingHandler) CreateSetupIntent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	confirmation, err := h.commands.AddPaymentMethod(c.Request.Context(), cqrs.AddPaymentMethodCommand{UserID: userID})
	if err != nil {
		failBilling(c, err, "Error adding the payment method")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": confirmation})
}

func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	var req CancelSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetUserID(c)

	err := h.commands.CancelSubscription(c.Request.Context(), cqrs.CancelSubscriptionCommand{
		UserID:         userID,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		failBilling(c, err, "Error cancelling the subscription")
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, notice.Success("Subscription cancelled successfully"))
}

func (h *BillingHandler) SetDefaultPaymentMethod(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commands.UpdatePaymentMethod(c.Request.Context(), cqrs.UpdatePaymentMethodCommand{
		UserID:          userID,
		PaymentMethodID: c.Param("id"),
	})
	if err != nil {
		failBilling(c, err, "Error updating the payment method")
		return
	}
	middleware.RespondWithNotice(c, http.StatusOK, notice.Success("Payment method updated successfully"))
}
