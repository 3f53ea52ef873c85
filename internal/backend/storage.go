package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Storage returns a storage client.
func (c *Client) Storage() *StorageClient {
	return &StorageClient{client: c}
}

// StorageClient handles storage operations.
type StorageClient struct {
	client *Client
}

// From returns a bucket client.
func (s *StorageClient) From(bucket string) *BucketClient {
	return &BucketClient{
		client: s.client,
		bucket: bucket,
	}
}

// BucketClient handles bucket operations.
type BucketClient struct {
	client *Client
	bucket string
}

// UploadOptions mirror the storage API's upload headers.
type UploadOptions struct {
	CacheControl int
	Upsert       bool
}

// Upload streams body to path inside the bucket.
func (b *BucketClient) Upload(ctx context.Context, path string, body io.Reader, contentType string, opts UploadOptions) (*Response, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, url.PathEscape(b.bucket), escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	b.client.setHeaders(req)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if opts.CacheControl > 0 {
		req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(opts.CacheControl))
	}
	req.Header.Set("x-upsert", strconv.FormatBool(opts.Upsert))

	return b.client.do(req, "storage.upload")
}

// Remove deletes objects from the bucket.
func (b *BucketClient) Remove(ctx context.Context, paths []string) error {
	req, err := b.client.newRequest(ctx, http.MethodDelete, "/storage/v1/object/"+b.bucket, map[string][]string{
		"prefixes": paths,
	})
	if err != nil {
		return err
	}
	_, err = b.client.do(req, "storage.remove")
	return err
}

// PublicURL returns the public URL for an object. No request is made.
func (b *BucketClient) PublicURL(path string) string {
	return b.publicPrefix() + escapePath(path)
}

// ObjectPath is the inverse of PublicURL. It reports false for URLs outside
// this bucket.
func (b *BucketClient) ObjectPath(publicURL string) (string, bool) {
	escaped, ok := strings.CutPrefix(publicURL, b.publicPrefix())
	if !ok || escaped == "" {
		return "", false
	}
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}
	return path, true
}

func (b *BucketClient) publicPrefix() string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/", b.client.baseURL, url.PathEscape(b.bucket))
}

// escapePath escapes each segment of an object path, keeping the slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
