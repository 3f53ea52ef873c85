package command

import (
	"context"
	"strings"

	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/events"
	"github.com/visadesk/visadesk/shared/models"
)

type PassportStore interface {
	Create(ctx context.Context, p *models.Passport) (*models.Passport, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}

type PassportCommandService struct {
	passports PassportStore
	photos    FileStore
	publisher EventPublisher
}

func NewPassportCommandService(passports PassportStore, photos FileStore, publisher EventPublisher) *PassportCommandService {
	return &PassportCommandService{
		passports: passports,
		photos:    photos,
		publisher: publisher,
	}
}

func (s *PassportCommandService) CreatePassport(ctx context.Context, cmd cqrs.CreatePassportCommand) (*models.Passport, error) {
	if blank(cmd.FirstName, cmd.LastName, cmd.PassportNumber, cmd.DateOfBirth, cmd.Nationality, cmd.IssueDate, cmd.ExpiryDate) {
		return nil, ErrMissingRequired
	}
	number := strings.TrimSpace(cmd.PassportNumber)

	exists, err := s.passports.NumberExists(ctx, number)
	if err != nil {
		logFailure(ctx, "passport.check_number", err)
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePassport
	}

	passport := &models.Passport{
		UserID:         cmd.UserID,
		FirstName:      strings.TrimSpace(cmd.FirstName),
		LastName:       strings.TrimSpace(cmd.LastName),
		DateOfBirth:    cmd.DateOfBirth,
		Nationality:    strings.TrimSpace(cmd.Nationality),
		PassportNumber: number,
		IssueDate:      cmd.IssueDate,
		ExpiryDate:     cmd.ExpiryDate,
	}
	if cmd.Photo != "" {
		photo := cmd.Photo
		passport.Photo = &photo
	}

	created, err := s.passports.Create(ctx, passport)
	if err != nil {
		logFailure(ctx, "passport.create", err)
		return nil, err
	}

	publish(ctx, s.publisher, events.PassportCreated, events.PassportCreatedEvent{
		PassportID: created.ID,
		UserID:     cmd.UserID,
	})
	return created, nil
}

// UploadPassportPhoto stores the photo and returns its public URL.
func (s *PassportCommandService) UploadPassportPhoto(ctx context.Context, cmd cqrs.UploadPassportPhotoCommand) (string, error) {
	url, err := storeFile(ctx, s.photos, cmd.File)
	if err != nil && !isRejection(err) {
		logFailure(ctx, "storage.upload", err)
	}
	return url, err
}
