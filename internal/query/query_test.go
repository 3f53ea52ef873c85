package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/models"
)

type fakeVisaReader struct {
	views []models.VisaView
	err   error
}

func (f *fakeVisaReader) GetView(_ context.Context, id string) (*models.VisaView, error) {
	for i := range f.views {
		if f.views[i].ID == id {
			return &f.views[i], nil
		}
	}
	return nil, &backend.Error{Status: 406, Code: backend.CodeNoRows}
}

func (f *fakeVisaReader) ListViews(_ context.Context, _ string) ([]models.VisaView, error) {
	return f.views, f.err
}

func sampleVisas() []models.VisaView {
	return []models.VisaView{
		{ID: "1", VisaNumber: "JP-001", Country: "Japan", Passport: &models.PassportSummary{FirstName: "Ada", LastName: "Lovelace"}},
		{ID: "2", VisaNumber: "US-777", Country: "United States", Passport: &models.PassportSummary{FirstName: "Alan", LastName: "Turing"}},
		{ID: "3", VisaNumber: "FR-123", Country: "France"},
	}
}

func TestListVisasSearch(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "empty keeps all", search: "", want: []string{"1", "2", "3"}},
		{name: "first name", search: "ada", want: []string{"1"}},
		{name: "last name case", search: "TURING", want: []string{"2"}},
		{name: "visa number", search: "fr-1", want: []string{"3"}},
		{name: "country", search: "states", want: []string{"2"}},
		{name: "full name", search: "alan turing", want: []string{"2"}},
		{name: "no match", search: "brazil", want: []string{}},
	}

	svc := NewVisaQueryService(&fakeVisaReader{views: sampleVisas()})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.ListVisas(context.Background(), cqrs.ListVisasQuery{Search: tt.search})
			require.NoError(t, err)
			ids := []string{}
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetVisaNotFound(t *testing.T) {
	svc := NewVisaQueryService(&fakeVisaReader{views: sampleVisas()})

	v, err := svc.GetVisa(context.Background(), cqrs.GetVisaQuery{VisaID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "US-777", v.VisaNumber)

	_, err = svc.GetVisa(context.Background(), cqrs.GetVisaQuery{VisaID: "9"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListVisasFailure(t *testing.T) {
	boom := errors.New("boom")
	svc := NewVisaQueryService(&fakeVisaReader{err: boom})
	_, err := svc.ListVisas(context.Background(), cqrs.ListVisasQuery{})
	assert.ErrorIs(t, err, boom)
}

type fakeBillingReader struct {
	sub *models.Subscription
}

func (f *fakeBillingReader) ListPrices(context.Context) ([]models.Price, error) {
	return []models.Price{{ID: "price_1"}}, nil
}

func (f *fakeBillingReader) ActiveSubscription(context.Context, string) (*models.Subscription, error) {
	return f.sub, nil
}

func (f *fakeBillingReader) ListPaymentMethods(context.Context, string) ([]models.PaymentMethod, error) {
	return nil, errors.New("down")
}

func TestBillingQueries(t *testing.T) {
	svc := NewBillingQueryService(&fakeBillingReader{})
	ctx := context.Background()

	prices, err := svc.ListPrices(ctx, cqrs.BillingQuery{})
	require.NoError(t, err)
	assert.Len(t, prices, 1)

	sub, err := svc.ActiveSubscription(ctx, cqrs.BillingQuery{UserID: "u-1"})
	require.NoError(t, err)
	assert.Nil(t, sub)

	_, err = svc.ListPaymentMethods(ctx, cqrs.BillingQuery{UserID: "u-1"})
	assert.Error(t, err)
}
