package repository

import (
	"context"
	"io"

	"github.com/visadesk/visadesk/internal/backend"
	"github.com/visadesk/visadesk/shared/utils"
)

const (
	PassportPhotosBucket = "passport-photos"
	VisaDocumentsBucket  = "visa-documents"

	// objectCacheSeconds is the Cache-Control max-age sent with every upload.
	objectCacheSeconds = 3600
)

// FileRepository stores uploads in one storage bucket under generated names.
type FileRepository struct {
	bucket *backend.BucketClient
}

func NewFileRepository(client *backend.Client, bucket string) *FileRepository {
	return &FileRepository{bucket: client.Storage().From(bucket)}
}

// Upload stores body under a fresh object name and returns its public URL.
// Existing objects are never overwritten.
func (r *FileRepository) Upload(ctx context.Context, fileName string, body io.Reader, contentType string) (string, error) {
	objectName := utils.GenerateObjectName(fileName)
	if _, err := r.bucket.Upload(ctx, objectName, body, contentType, backend.UploadOptions{
		CacheControl: objectCacheSeconds,
		Upsert:       false,
	}); err != nil {
		return "", err
	}
	return r.bucket.PublicURL(objectName), nil
}

// Remove deletes the objects behind public URLs returned by Upload. URLs that
// point elsewhere are skipped.
func (r *FileRepository) Remove(ctx context.Context, urls []string) error {
	paths := make([]string, 0, len(urls))
	for _, u := range urls {
		if path, ok := r.bucket.ObjectPath(u); ok {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	return r.bucket.Remove(ctx, paths)
}
