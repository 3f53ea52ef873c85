package cqrs

import (
	"io"

	"github.com/visadesk/visadesk/shared/models"
)

type CreatePassportCommand struct {
	UserID         string
	FirstName      string
	LastName       string
	DateOfBirth    string
	Nationality    string
	PassportNumber string
	IssueDate      string
	ExpiryDate     string
	Photo          string
}

type CreateVisaCommand struct {
	UserID     string
	PassportID string
	VisaNumber string
	Country    string
	VisaType   string
	IssueDate  string
	ExpiryDate string
	Status     string
	Notes      string
	Documents  []models.VisaDocument
}

type DeleteVisaCommand struct {
	VisaID string
	UserID string
}

// UploadFile is one file of a multipart batch. Open is only called for files
// that pass the size check.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type UploadDocumentsCommand struct {
	UserID string
	Files  []UploadFile
}

type UploadPassportPhotoCommand struct {
	UserID string
	File   UploadFile
}

type TogglePreferenceCommand struct {
	UserID string
	Key    string
}

type StartCheckoutCommand struct {
	UserID  string
	PriceID string
}

type AddPaymentMethodCommand struct {
	UserID string
}

type CancelSubscriptionCommand struct {
	UserID         string
	SubscriptionID string
}

type UpdatePaymentMethodCommand struct {
	UserID          string
	PaymentMethodID string
}
