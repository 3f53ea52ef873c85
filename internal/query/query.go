// Package query holds the read side. Every read goes to the hosted backend
// with the caller's token, so results are already scoped to the caller.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/models"
)

var ErrNotFound = errors.New("not found")

func notFoundOr(ctx context.Context, operation string, err error) error {
	if backend.IsNoRows(err) {
		return ErrNotFound
	}
	logging.FromContext(ctx).WithError(err).WithField("operation", operation).Error("read failed")
	return err
}

type PassportReader interface {
	GetByID(ctx context.Context, id string) (*models.Passport, error)
	List(ctx context.Context, userID string) ([]models.Passport, error)
	ListOptions(ctx context.Context, userID string) ([]models.PassportOption, error)
}

type PassportQueryService struct {
	passports PassportReader
}

func NewPassportQueryService(passports PassportReader) *PassportQueryService {
	return &PassportQueryService{passports: passports}
}

func (s *PassportQueryService) GetPassport(ctx context.Context, q cqrs.GetPassportQuery) (*models.Passport, error) {
	p, err := s.passports.GetByID(ctx, q.PassportID)
	if err != nil {
		return nil, notFoundOr(ctx, "passport.get", err)
	}
	return p, nil
}

func (s *PassportQueryService) ListPassports(ctx context.Context, q cqrs.ListPassportsQuery) ([]models.Passport, error) {
	passports, err := s.passports.List(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "passport.list", err)
	}
	return passports, nil
}

// ListPassportOptions feeds the visa form's passport selector.
func (s *PassportQueryService) ListPassportOptions(ctx context.Context, q cqrs.ListPassportsQuery) ([]models.PassportOption, error) {
	options, err := s.passports.ListOptions(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "passport.options", err)
	}
	return options, nil
}

type VisaReader interface {
	GetView(ctx context.Context, id string) (*models.VisaView, error)
	ListViews(ctx context.Context, userID string) ([]models.VisaView, error)
}

type VisaQueryService struct {
	visas VisaReader
}

func NewVisaQueryService(visas VisaReader) *VisaQueryService {
	return &VisaQueryService{visas: visas}
}

func (s *VisaQueryService) GetVisa(ctx context.Context, q cqrs.GetVisaQuery) (*models.VisaView, error) {
	v, err := s.visas.GetView(ctx, q.VisaID)
	if err != nil {
		return nil, notFoundOr(ctx, "visa.get", err)
	}
	return v, nil
}

// ListVisas returns visas newest first, keeping only those matching the search term.
func (s *VisaQueryService) ListVisas(ctx context.Context, q cqrs.ListVisasQuery) ([]models.VisaView, error) {
	views, err := s.visas.ListViews(ctx, q.UserID)
	if err != nil {
		return nil, notFoundOr(ctx, "visa.list", err)
	}

	term := strings.TrimSpace(q.Search)
	if term == "" {
		return views, nil
	}
	filtered := make([]models.VisaView, 0, len(views))
	for i := range views {
		if views[i].Matches(term) {
			filtered = append(filtered, views[i])
		}
	}
	return filtered, nil
}
