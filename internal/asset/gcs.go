package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
)

// GCSStore puts assets in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore opens a client with application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("asset: gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Put uploads body and returns the public object URL. The write only
// succeeds if the object does not exist yet.
func (s *GCSStore) Put(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(objectPath).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("asset: gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("asset: gcs close: %w", err)
	}

	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + s.bucket + "/" + objectPath}
	return u.String(), nil
}

// Delete removes the object.
func (s *GCSStore) Delete(ctx context.Context, objectPath string) error {
	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("asset: gcs delete: %w", err)
	}
	return nil
}
