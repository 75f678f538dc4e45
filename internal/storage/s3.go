package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lakeload/internal/config"
	"lakeload/internal/domain"
)

var _ domain.RawStore = (*S3Store)(nil)

// S3Store keeps raw files in an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates a store for bucket/prefix using static credentials.
// Path-style addressing is used unless the URL style is "vhost".
func NewS3Store(st *config.StorageConfig, bucket, prefix string) (*S3Store, error) {
	if !st.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	endpoint := *st.S3Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	client := s3.New(s3.Options{
		Region: *st.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*st.S3KeyID, *st.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: st.S3URLStyle != "vhost",
	})
	return &S3Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// Put uploads content under key, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, key string, content []byte) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objKey),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, objKey, err)
	}
	return nil
}

// Get downloads the object stored under key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, domain.ErrNotFound("raw file %q not found", key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, objKey, err)
	}
	defer out.Body.Close() //nolint:errcheck
	return io.ReadAll(out.Body)
}

// URI returns the s3:// URI of key.
func (s *S3Store) URI(key string) string {
	return "s3://" + s.bucket + "/" + joinPrefix(s.prefix, key)
}

func (s *S3Store) objectKey(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return joinPrefix(s.prefix, k), nil
}
