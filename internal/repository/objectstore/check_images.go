// Package objectstore keeps mobile deposit check images in MinIO.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// CheckImageStore stores check images in a single bucket
type CheckImageStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewCheckImageStore creates a store and makes sure the bucket exists
func NewCheckImageStore(ctx context.Context, client *minio.Client, bucket string, logger *zap.Logger) (*CheckImageStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created check image bucket", zap.String("bucket", bucket))
	}

	return &CheckImageStore{client: client, bucket: bucket, logger: logger}, nil
}

// Put uploads an image under key
func (s *CheckImageStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// PresignedGet returns a time-limited download URL for key
func (s *CheckImageStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes an image
func (s *CheckImageStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
