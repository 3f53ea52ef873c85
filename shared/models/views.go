package models

import (
	"strings"
	"time"
)

// PassportSummary is the embedded passport projection returned with a visa.
type PassportSummary struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PassportNumber string `json:"passport_number"`
}

// PassportOption is the compact projection used to fill the visa form's passport selector.
type PassportOption struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	PassportNumber string `json:"passport_number"`
}

// VisaView is the read projection of a visa joined with its passport.
type VisaView struct {
	ID         string           `json:"id"`
	PassportID string           `json:"passport_id"`
	VisaNumber string           `json:"visa_number"`
	Country    string           `json:"country"`
	VisaType   string           `json:"visa_type"`
	IssueDate  string           `json:"issue_date"`
	ExpiryDate string           `json:"expiry_date"`
	Status     string           `json:"status"`
	Notes      string           `json:"notes,omitempty"`
	Documents  []VisaDocument   `json:"documents"`
	Passport   *PassportSummary `json:"passport,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Matches reports whether term occurs, case-insensitively, in the holder's
// name, the visa number or the country. An empty term matches everything.
func (v *VisaView) Matches(term string) bool {
	if term == "" {
		return true
	}
	var first, last string
	if v.Passport != nil {
		first, last = v.Passport.FirstName, v.Passport.LastName
	}
	haystack := strings.ToLower(first + " " + last + " " + v.VisaNumber + " " + v.Country)
	return strings.Contains(haystack, strings.ToLower(term))
}
