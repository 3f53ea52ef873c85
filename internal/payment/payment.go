// Package payment drives the hosted payment provider's browser flows. It
// never holds secret keys: sessions and setup intents are created by the
// backend's serverless functions and only redeemed here.
package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultCheckoutURL = "https://checkout.stripe.com/c/pay"

// ErrNotLoaded mirrors the provider script failing to load: the flow cannot
// start without a public key.
var ErrNotLoaded = errors.New("payment provider not loaded")

// ErrMissingSession is returned when a function answered without the
// identifier the redirect needs.
var ErrMissingSession = errors.New("payment session identifier missing")

type Config struct {
	PublicKey   string
	CheckoutURL string
}

type Client struct {
	publicKey   string
	checkoutURL string
}

func New(cfg Config) (*Client, error) {
	if cfg.PublicKey == "" {
		return nil, ErrNotLoaded
	}
	checkoutURL := cfg.CheckoutURL
	if checkoutURL == "" {
		checkoutURL = DefaultCheckoutURL
	}
	if _, err := url.Parse(checkoutURL); err != nil {
		return nil, fmt.Errorf("invalid checkout URL: %w", err)
	}
	return &Client{
		publicKey:   cfg.PublicKey,
		checkoutURL: strings.TrimSuffix(checkoutURL, "/"),
	}, nil
}

// PublishableKey is safe to hand to the browser.
func (c *Client) PublishableKey() string { return c.publicKey }

// CheckoutSession is what the checkout function returns.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// CheckoutRedirect returns where the browser must go to pay. The hosted URL
// returned by the provider wins; otherwise it is derived from the session id.
func (c *Client) CheckoutRedirect(s CheckoutSession) (string, error) {
	if s.URL != "" {
		return s.URL, nil
	}
	if s.ID == "" {
		return "", ErrMissingSession
	}
	return c.checkoutURL + "/" + url.PathEscape(s.ID), nil
}

// SetupConfirmation carries what the browser needs to confirm a card setup.
type SetupConfirmation struct {
	ClientSecret   string `json:"clientSecret"`
	PublishableKey string `json:"publishableKey"`
}

func (c *Client) SetupConfirmation(clientSecret string) (*SetupConfirmation, error) {
	if clientSecret == "" {
		return nil, ErrMissingSession
	}
	return &SetupConfirmation{
		ClientSecret:   clientSecret,
		PublishableKey: c.publicKey,
	}, nil
}
