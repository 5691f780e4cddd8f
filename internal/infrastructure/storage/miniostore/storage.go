package miniostore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/psemenov/texify/internal/core/domain"
)

// Storage is the durable object store backing uploaded originals.
type Storage struct {
	client *minio.Client
	bucket string
}

func New(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Storage{client: client, bucket: bucket}, nil
}

// Put stores an object under key. The store is append-only: a key that
// already holds an object is a hard failure, never an overwrite.
func (s *Storage) Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error {
	_, statErr := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if statErr == nil {
		return domain.WrapError(domain.ErrStorage, "put object", fmt.Errorf("object already exists at %s", key))
	}
	if resp := minio.ToErrorResponse(statErr); resp.Code != "NoSuchKey" {
		return domain.WrapError(domain.ErrStorage, "stat object", statErr)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "put object", err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "get object", err)
	}
	// GetObject is lazy; Stat forces the first round trip so a missing
	// key surfaces here instead of on the first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, domain.WrapError(domain.ErrNotFound, "get object", err)
		}
		return nil, domain.WrapError(domain.ErrStorage, "get object", err)
	}
	return obj, nil
}
