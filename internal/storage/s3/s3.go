// Package s3 stores artifacts in an Amazon S3 bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/storage"
)

type Config struct {
	Bucket string
	Region string
	// Endpoint points the client at an S3 compatible service instead of AWS.
	Endpoint     string
	UsePathStyle bool
	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  *slog.Logger
}

// New builds an S3 client from cfg and the ambient AWS configuration.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL(cfg),
		logger:  logger,
	}, nil
}

func baseURL(cfg Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case cfg.Endpoint != "":
		return storage.JoinURL(cfg.Endpoint, cfg.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload puts body at key. PutObject overwrites existing objects.
func (s *Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", &apperr.StorageError{Key: key, Err: err}
	}

	s.logger.Info("artifact uploaded",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.String("size", humanize.Bytes(uint64(size))))

	return storage.JoinURL(s.baseURL, key), nil
}
