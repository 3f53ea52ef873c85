package command

import (
	"context"
	"strings"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/events"
	"github.com/visadesk/visadesk/shared/models"
)

type VisaStore interface {
	Create(ctx context.Context, v *models.Visa) (*models.Visa, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	Delete(ctx context.Context, id string) (*models.Visa, error)
}

// DocumentStore also removes what it stored.
type DocumentStore interface {
	FileStore
	Remove(ctx context.Context, urls []string) error
}

type VisaCommandService struct {
	visas     VisaStore
	documents DocumentStore
	publisher EventPublisher
}

func NewVisaCommandService(visas VisaStore, documents DocumentStore, publisher EventPublisher) *VisaCommandService {
	return &VisaCommandService{
		visas:     visas,
		documents: documents,
		publisher: publisher,
	}
}

// CreateVisa checks the visa number with a read before inserting. Two
// concurrent submissions of the same number can both pass the read; the
// database unique index, when installed, turns the loser into ErrDuplicateVisa.
func (s *VisaCommandService) CreateVisa(ctx context.Context, cmd cqrs.CreateVisaCommand) (*models.Visa, error) {
	if blank(cmd.PassportID, cmd.VisaNumber) {
		return nil, ErrMissingRequired
	}
	number := strings.TrimSpace(cmd.VisaNumber)

	exists, err := s.visas.NumberExists(ctx, number)
	if err != nil {
		logFailure(ctx, "visa.check_number", err)
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateVisa
	}

	documents := cmd.Documents
	if documents == nil {
		documents = []models.VisaDocument{}
	}
	status := cmd.Status
	if status == "" {
		status = models.VisaStatusActive
	}
	visa := &models.Visa{
		UserID:     cmd.UserID,
		PassportID: cmd.PassportID,
		VisaNumber: number,
		Country:    cmd.Country,
		VisaType:   cmd.VisaType,
		IssueDate:  cmd.IssueDate,
		ExpiryDate: cmd.ExpiryDate,
		Status:     status,
		Notes:      cmd.Notes,
		Documents:  documents,
	}

	created, err := s.visas.Create(ctx, visa)
	if backend.IsUniqueViolation(err) {
		return nil, ErrDuplicateVisa
	}
	if err != nil {
		logFailure(ctx, "visa.create", err)
		return nil, err
	}

	publish(ctx, s.publisher, events.VisaCreated, events.VisaCreatedEvent{
		VisaID:     created.ID,
		PassportID: created.PassportID,
		UserID:     cmd.UserID,
		Country:    created.Country,
		Documents:  len(documents),
	})
	return created, nil
}

func (s *VisaCommandService) DeleteVisa(ctx context.Context, cmd cqrs.DeleteVisaCommand) error {
	deleted, err := s.visas.Delete(ctx, cmd.VisaID)
	if err != nil {
		logFailure(ctx, "visa.delete", err)
		return err
	}
	if deleted == nil {
		return ErrNotFound
	}

	// The row is gone either way; orphaned objects are only logged.
	if len(deleted.Documents) > 0 {
		urls := make([]string, len(deleted.Documents))
		for i, d := range deleted.Documents {
			urls[i] = d.URL
		}
		if err := s.documents.Remove(ctx, urls); err != nil {
			logging.FromContext(ctx).WithError(err).WithField("visa_id", cmd.VisaID).Warn("visa documents left in storage")
		}
	}

	publish(ctx, s.publisher, events.VisaDeleted, events.VisaDeletedEvent{
		VisaID: cmd.VisaID,
		UserID: cmd.UserID,
	})
	return nil
}

// UploadDocuments stores every acceptable file. The result is always
// returned; the error aggregates the files that were not stored.
func (s *VisaCommandService) UploadDocuments(ctx context.Context, cmd cqrs.UploadDocumentsCommand) (*UploadResult, error) {
	result, err := uploadBatch(ctx, s.documents, cmd.Files)

	publish(ctx, s.publisher, events.VisaDocumentsUploaded, events.DocumentsUploadedEvent{
		UserID:   cmd.UserID,
		Uploaded: len(result.Documents),
		Rejected: len(cmd.Files) - len(result.Documents),
	})
	return result, err
}
