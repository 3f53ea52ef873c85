package cqrs

// ---------- Passport queries ----------

// GetPassportQuery fetches a single passport by ID. Row visibility is
// enforced by the backend's policies for the caller's token.
type GetPassportQuery struct {
	PassportID string
}

// ListPassportsQuery fetches every passport visible to the caller.
type ListPassportsQuery struct {
	UserID string
}

// ---------- Visa queries ----------

type GetVisaQuery struct {
	VisaID string
}

// ListVisasQuery fetches visas newest first. Search filters on holder name,
// visa number and country.
type ListVisasQuery struct {
	UserID string
	Search string
}

// ---------- Billing and settings queries ----------

type BillingQuery struct {
	UserID string
}

type PreferencesQuery struct {
	UserID string
}
