package models

import "time"

// Visa statuses accepted by the backend check constraint.
const (
	VisaStatusActive    = "active"
	VisaStatusExpired   = "expired"
	VisaStatusCancelled = "cancelled"
)

type Passport struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DateOfBirth    string    `json:"date_of_birth"`
	Nationality    string    `json:"nationality"`
	PassportNumber string    `json:"passport_number"`
	IssueDate      string    `json:"issue_date"`
	ExpiryDate     string    `json:"expiry_date"`
	Photo          *string   `json:"photo"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// VisaDocument describes one uploaded file attached to a visa.
type VisaDocument struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type Visa struct {
	ID         string         `json:"id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	PassportID string         `json:"passport_id"`
	VisaNumber string         `json:"visa_number"`
	Country    string         `json:"country"`
	VisaType   string         `json:"visa_type"`
	IssueDate  string         `json:"issue_date"`
	ExpiryDate string         `json:"expiry_date"`
	Status     string         `json:"status"`
	Notes      string         `json:"notes,omitempty"`
	Documents  []VisaDocument `json:"documents"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

type Price struct {
	ID            string `json:"id"`
	Product       string `json:"product"`
	UnitAmount    int64  `json:"unit_amount"`
	Currency      string `json:"currency"`
	Type          string `json:"type"`
	Interval      string `json:"interval,omitempty"`
	IntervalCount int    `json:"interval_count,omitempty"`
}

type Subscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	PriceID           string `json:"price_id,omitempty"`
	CurrentPeriodEnd  string `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

type PaymentMethod struct {
	ID        string `json:"id"`
	Brand     string `json:"brand"`
	Last4     string `json:"last4"`
	ExpMonth  int    `json:"exp_month"`
	ExpYear   int    `json:"exp_year"`
	CreatedAt string `json:"created_at,omitempty"`
}

// NotificationPreferences is stored as one row per user and written with upsert.
type NotificationPreferences struct {
	UserID            string `json:"user_id,omitempty"`
	EmailPayment      bool   `json:"email_payment"`
	EmailSubscription bool   `json:"email_subscription"`
	EmailExpiry       bool   `json:"email_expiry"`
	PushPayment       bool   `json:"push_payment"`
	PushSubscription  bool   `json:"push_subscription"`
	PushExpiry        bool   `json:"push_expiry"`
}

// DefaultNotificationPreferences is what a user sees before the first toggle.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailPayment:      true,
		EmailSubscription: true,
		EmailExpiry:       true,
	}
}

func (p *NotificationPreferences) flag(key string) *bool {
	switch key {
	case "email_payment":
		return &p.EmailPayment
	case "email_subscription":
		return &p.EmailSubscription
	case "email_expiry":
		return &p.EmailExpiry
	case "push_payment":
		return &p.PushPayment
	case "push_subscription":
		return &p.PushSubscription
	case "push_expiry":
		return &p.PushExpiry
	}
	return nil
}

// Toggle flips the flag named by its column key. It reports false for unknown keys.
func (p *NotificationPreferences) Toggle(key string) bool {
	f := p.flag(key)
	if f == nil {
		return false
	}
	*f = !*f
	return true
}

// Value returns the flag named by key, false for unknown keys.
func (p *NotificationPreferences) Value(key string) bool {
	if f := p.flag(key); f != nil {
		return *f
	}
	return false
}
