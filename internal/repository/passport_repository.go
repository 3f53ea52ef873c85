package repository

import (
	"context"
	"fmt"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/shared/models"
)

const passportsTable = "passports"

// passportRow is the insert payload. Ids and timestamps are assigned by the database.
type passportRow struct {
	UserID         string  `json:"user_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DateOfBirth    string  `json:"date_of_birth"`
	Nationality    string  `json:"nationality"`
	PassportNumber string  `json:"passport_number"`
	IssueDate      string  `json:"issue_date"`
	ExpiryDate     string  `json:"expiry_date"`
	Photo          *string `json:"photo"`
}

// PassportRepository reads and writes passports through the data API.
// Row visibility is decided by the backend for the token carried in ctx.
type PassportRepository struct {
	client *backend.Client
}

func NewPassportRepository(client *backend.Client) *PassportRepository {
	return &PassportRepository{client: client}
}

func (r *PassportRepository) Create(ctx context.Context, p *models.Passport) (*models.Passport, error) {
	row := passportRow{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DateOfBirth:    p.DateOfBirth,
		Nationality:    p.Nationality,
		PassportNumber: p.PassportNumber,
		IssueDate:      p.IssueDate,
		ExpiryDate:     p.ExpiryDate,
		Photo:          p.Photo,
	}
	resp, err := r.client.From(passportsTable).Insert(ctx, []passportRow{row})
	if err != nil {
		return nil, err
	}
	var rows []models.Passport
	if err := resp.Decode(&rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return p, nil
	}
	return &rows[0], nil
}

// NumberExists reports whether a passport with this number is visible to the caller.
func (r *PassportRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	_, err := r.client.From(passportsTable).
		Select("passport_number").
		Eq("passport_number", number).
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

func (r *PassportRepository) GetByID(ctx context.Context, id string) (*models.Passport, error) {
	resp, err := r.client.From(passportsTable).
		Select("*").
		Eq("id", id).
		Single().
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	var p models.Passport
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns full passports ordered by holder surname.
func (r *PassportRepository) List(ctx context.Context, userID string) ([]models.Passport, error) {
	q := r.client.From(passportsTable).Select("*").Order("last_name", true)
	if userID != "" {
		q = q.Eq("user_id", userID)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	passports := []models.Passport{}
	if err := resp.Decode(&passports); err != nil {
		return nil, fmt.Errorf("decode passports: %w", err)
	}
	return passports, nil
}

// ListOptions returns the compact projection for the visa form selector.
func (r *PassportRepository) ListOptions(ctx context.Context, userID string) ([]models.PassportOption, error) {
	q := r.client.From(passportsTable).
		Select("id, first_name, last_name, passport_number").
		Order("last_name", true)
	if userID != "" {
		q = q.Eq("user_id", userID)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	options := []models.PassportOption{}
	if err := resp.Decode(&options); err != nil {
		return nil, fmt.Errorf("decode passport options: %w", err)
	}
	return options, nil
}
