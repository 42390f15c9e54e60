package storage

import (
	"context"
	"errors"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/oksasatya/member-registry/pkg/helpers"
)

// PhotoStore uploads registrant photos to a GCS bucket.
type PhotoStore struct {
	client  *gcs.Client
	bucket  string
	timeout time.Duration
}

func NewPhotoStore(client *gcs.Client, bucket string) *PhotoStore {
	return &PhotoStore{client: client, bucket: bucket, timeout: 30 * time.Second}
}

func (s *PhotoStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s == nil || s.client == nil || s.bucket == "" {
		return "", errors.New("gcs not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}
