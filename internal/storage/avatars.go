package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/powerfitness/gymd/pkg/config"
)

// AvatarStore keeps member avatar images in an S3-compatible bucket.
// A nil *AvatarStore disables avatar uploads, which is fine for
// deployments without object storage configured.
type AvatarStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewAvatarStore connects to the configured object store and makes sure
// the avatar bucket exists. Returns (nil, nil) when no endpoint is set.
func NewAvatarStore(ctx context.Context, cfg config.MinIOConfig, logger *slog.Logger) (*AvatarStore, error) {
	if cfg.Endpoint == "" {
		logger.Info("object storage not configured, avatar uploads disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage: %w", err)
	}

	store := &AvatarStore{client: client, bucket: cfg.Bucket, logger: logger}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *AvatarStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking avatar bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating avatar bucket: %w", err)
	}
	s.logger.Info("created avatar bucket", "bucket", s.bucket)
	return nil
}

// Upload stores an avatar under the member id and returns the object key.
func (s *AvatarStore) Upload(ctx context.Context, memberID string, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s", memberID)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading avatar for member %s: %w", memberID, err)
	}
	return key, nil
}

// Remove deletes a member's avatar object if present.
func (s *AvatarStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing avatar object %s: %w", key, err)
	}
	return nil
}
