package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/climatologylab/labsite/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage stores objects on any S3-compatible server (MinIO, Garage,
// Backblaze B2 and similar) through minio-go.
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage connects to the endpoint and checks the bucket exists.
func NewMinioStorage(ctx context.Context, cfg config.MinioStorageConfig, logger *slog.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseTLS,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	logger.Info("media storage connected", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &MinioStorage{client: client, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

func (s *MinioStorage) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return name, nil
}

func (s *MinioStorage) URL(name string) string {
	return joinURL(s.publicURL, name)
}

func (s *MinioStorage) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
