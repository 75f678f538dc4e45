package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"lakeload/internal/config"
	"lakeload/internal/domain"
)

var _ domain.RawStore = (*GCSStore)(nil)

// GCSStore keeps raw files in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store for bucket/prefix. Without a key file the
// client falls back to application default credentials.
func NewGCSStore(ctx context.Context, st *config.StorageConfig, bucket, prefix string) (*GCSStore, error) {
	var opts []option.ClientOption
	if st.GCSKeyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, st.GCSKeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads content under key, replacing any existing object.
func (s *GCSStore) Put(ctx context.Context, key string, content []byte) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(objKey).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, objKey, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, objKey, err)
	}
	return nil
}

// Get downloads the object stored under key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(objKey).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, domain.ErrNotFound("raw file %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.bucket, objKey, err)
	}
	defer r.Close() //nolint:errcheck
	return io.ReadAll(r)
}

// URI returns the gs:// URI of key.
func (s *GCSStore) URI(key string) string {
	return "gs://" + s.bucket + "/" + joinPrefix(s.prefix, key)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return joinPrefix(s.prefix, k), nil
}
