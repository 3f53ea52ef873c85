package repository

import (
	"context"
	"fmt"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/shared/models"
)

const (
	visasTable = "visas"

	// visaViewColumns embeds the holder's passport in every visa row.
	visaViewColumns = "*, passport:passports(first_name, last_name, passport_number)"
)

type visaRow struct {
	UserID     string                `json:"user_id"`
	PassportID string                `json:"passport_id"`
	VisaNumber string                `json:"visa_number"`
	Country    string                `json:"country"`
	VisaType   string                `json:"visa_type"`
	IssueDate  string                `json:"issue_date"`
	ExpiryDate string                `json:"expiry_date"`
	Status     string                `json:"status"`
	Notes      string                `json:"notes,omitempty"`
	Documents  []models.VisaDocument `json:"documents"`
}

type VisaRepository struct {
	client *backend.Client
}

func NewVisaRepository(client *backend.Client) *VisaRepository {
	return &VisaRepository{client: client}
}

func (r *VisaRepository) Create(ctx context.Context, v *models.Visa) (*models.Visa, error) {
	docs := v.Documents
	if docs == nil {
		docs = []models.VisaDocument{}
	}
	row := visaRow{
		UserID:     v.UserID,
		PassportID: v.PassportID,
		VisaNumber: v.VisaNumber,
		Country:    v.Country,
		VisaType:   v.VisaType,
		IssueDate:  v.IssueDate,
		ExpiryDate: v.ExpiryDate,
		Status:     v.Status,
		Notes:      v.Notes,
		Documents:  docs,
	}
	resp, err := r.client.From(visasTable).Insert(ctx, []visaRow{row})
	if err != nil {
		return nil, err
	}
	var rows []models.Visa
	if err := resp.Decode(&rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return v, nil
	}
	return &rows[0], nil
}

// NumberExists is an advisory read; it does not reserve the number.
func (r *VisaRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	_, err := r.client.From(visasTable).
		Select("visa_number").
		Eq("visa_number", number).
		Limit(1).
		Single().
		Execute(ctx)
	if backend.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *VisaRepository) GetView(ctx context.Context, id string) (*models.VisaView, error) {
	resp, err := r.client.From(visasTable).
		Select(visaViewColumns).
		Eq("id", id).
		Single().
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	var v models.VisaView
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListViews returns visas newest first, each with its passport summary.
func (r *VisaRepository) ListViews(ctx context.Context, userID string) ([]models.VisaView, error) {
	q := r.client.From(visasTable).
		Select(visaViewColumns).
		Order("created_at", false)
	if userID != "" {
		q = q.Eq("user_id", userID)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	views := []models.VisaView{}
	if err := resp.Decode(&views); err != nil {
		return nil, fmt.Errorf("decode visas: %w", err)
	}
	return views, nil
}

// Delete removes the visa and returns the deleted row, or nil when no row
// matched.
func (r *VisaRepository) Delete(ctx context.Context, id string) (*models.Visa, error) {
	resp, err := r.client.From(visasTable).Eq("id", id).Delete(ctx)
	if err != nil {
		return nil, err
	}
	var rows []models.Visa
	if err := resp.Decode(&rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
