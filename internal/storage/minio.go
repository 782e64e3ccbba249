package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"rotavault/internal/config"
)

// MinioBlobStore implements BlobStore over a MinIO/S3 bucket.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioBlobStore connects to MinIO and ensures the bucket exists.
func NewMinioBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	logger.Info("blob store ready", "bucket", cfg.MinioBucket)

	return &MinioBlobStore{
		client: client,
		bucket: cfg.MinioBucket,
		logger: logger,
	}, nil
}

// Put streams content into the bucket under path
func (s *MinioBlobStore) Put(ctx context.Context, path string, content io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

// Get opens the object for streaming. StatObject first, because GetObject
// defers the existence check to the first read.
func (s *MinioBlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if _, err := s.Size(ctx, path); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", path, err)
	}
	return obj, nil
}

// Remove deletes the object; an already-absent object is success
func (s *MinioBlobStore) Remove(ctx context.Context, path string) error {
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		if isMissingObject(err) {
			return nil
		}
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}

// Size reports the object's byte length
func (s *MinioBlobStore) Size(ctx context.Context, path string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isMissingObject(err) {
			return 0, ErrBlobNotFound
		}
		return 0, fmt.Errorf("stat object %s: %w", path, err)
	}
	return info.Size, nil
}

func isMissingObject(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
