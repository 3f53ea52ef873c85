package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/visadesk/visadesk/internal/metrics"
	"github.com/visadesk/visadesk/shared/cqrs"
	"github.com/visadesk/visadesk/shared/models"
	"github.com/visadesk/visadesk/shared/notice"
	"github.com/visadesk/visadesk/shared/utils"
)

// FileStore puts a file in a storage bucket and returns its public URL.
type FileStore interface {
	Upload(ctx context.Context, fileName string, body io.Reader, contentType string) (string, error)
}

// UploadResult lists the stored documents and one notice per submitted file.
type UploadResult struct {
	Documents []models.VisaDocument `json:"documents"`
	Notices   []notice.Notice       `json:"notices"`
}

func tooLargeMessage(name string) string {
	return fmt.Sprintf("The file %s exceeds the maximum size of 10MB", name)
}

// isRejection reports a file refused before any storage call.
func isRejection(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

// storeFile enforces the size cap before touching the file or the bucket.
func storeFile(ctx context.Context, store FileStore, f cqrs.UploadFile) (string, error) {
	if utils.ExceedsUploadLimit(f.Size) {
		metrics.RecordUploadRejected()
		return "", fmt.Errorf("%s: %w", f.Name, ErrFileTooLarge)
	}

	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer body.Close()

	url, err := store.Upload(ctx, f.Name, body, f.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}
	return url, nil
}

// uploadBatch stores each file independently. A rejected or failed file
// never prevents the others from being stored.
func uploadBatch(ctx context.Context, store FileStore, files []cqrs.UploadFile) (*UploadResult, error) {
	result := &UploadResult{
		Documents: []models.VisaDocument{},
		Notices:   make([]notice.Notice, 0, len(files)),
	}
	var merr *multierror.Error

	for _, f := range files {
		url, err := storeFile(ctx, store, f)
		switch {
		case err == nil:
			result.Documents = append(result.Documents, models.VisaDocument{
				Name: f.Name,
				URL:  url,
				Type: f.ContentType,
				Size: f.Size,
			})
			result.Notices = append(result.Notices, notice.Success(fmt.Sprintf("%s uploaded successfully", f.Name)))
		case isRejection(err):
			result.Notices = append(result.Notices, notice.Error(tooLargeMessage(f.Name)))
			merr = multierror.Append(merr, err)
		default:
			logFailure(ctx, "storage.upload", err)
			result.Notices = append(result.Notices, notice.Error(fmt.Sprintf("Error uploading %s", f.Name)))
			merr = multierror.Append(merr, err)
		}
	}

	return result, merr.ErrorOrNil()
}
