// Package minio stores artifacts in a MinIO (or any S3 compatible) bucket
// through minio-go.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
)

// Config holds the connection settings for the bucket.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	// Region skips the bucket location lookup when set.
	Region string
	// PublicBaseURL overrides the <scheme>://<endpoint>/<bucket> prefix of
	// returned URLs, e.g. for a CDN in front of the bucket.
	PublicBaseURL string
}

type Store struct {
	client     *minio.Client
	bucketName string
	baseURL    string
	logger     *slog.Logger
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		client:     client,
		bucketName: cfg.BucketName,
		baseURL:    cfg.PublicBaseURL,
		logger:     logger,
	}
	if s.baseURL == "" {
		s.baseURL = storage.JoinURL(client.EndpointURL().String(), cfg.BucketName)
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return s, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info("bucket created", slog.String("bucket", s.bucketName))
	}

	return nil
}

// Upload writes body to key, replacing any existing object.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", &apperr.StorageError{Key: key, Err: err}
	}

	s.logger.Info("artifact uploaded",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.String("size", humanize.Bytes(uint64(info.Size))))

	return s.URL(key), nil
}

// URL returns the public URL for key. The bucket must allow anonymous reads
// for it to resolve.
func (s *Store) URL(key string) string {
	return storage.JoinURL(s.baseURL, key)
}
