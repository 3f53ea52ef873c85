package events

import "time"

// Event types
const (
	PassportCreated = "passport.created"

	VisaCreated           = "visa.created"
	VisaDeleted           = "visa.deleted"
	VisaDocumentsUploaded = "visa.documents_uploaded"

	PreferencesUpdated = "preferences.updated"

	CheckoutStarted       = "billing.checkout_started"
	SubscriptionCancelled = "billing.subscription_cancelled"
	PaymentMethodUpdated  = "billing.payment_method_updated"

	SessionSignedIn         = "session.signed_in"
	SessionSignedOut        = "session.signed_out"
	SessionUserUpdated      = "session.user_updated"
	SessionPasswordRecovery = "session.password_recovery"
)

// Stream names
const (
	RecordEventsStream  = "record.events"
	SessionEventsStream = "session.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Record events

type PassportCreatedEvent struct {
	PassportID string `json:"passportId"`
	UserID     string `json:"userId"`
}

type VisaCreatedEvent struct {
	VisaID     string `json:"visaId,omitempty"`
	PassportID string `json:"passportId"`
	UserID     string `json:"userId"`
	Country    string `json:"country"`
	Documents  int    `json:"documents"`
}

type VisaDeletedEvent struct {
	VisaID string `json:"visaId"`
	UserID string `json:"userId"`
}

type DocumentsUploadedEvent struct {
	UserID   string `json:"userId"`
	Uploaded int    `json:"uploaded"`
	Rejected int    `json:"rejected"`
}

type PreferencesUpdatedEvent struct {
	UserID string `json:"userId"`
	Key    string `json:"key"`
	Value  bool   `json:"value"`
}

// Billing events

type BillingEvent struct {
	UserID   string `json:"userId"`
	Resource string `json:"resource"`
}

// Session events

type SessionEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Scope  string `json:"scope,omitempty"`
}
