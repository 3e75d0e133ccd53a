package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/your-org/rallyscope/internal/config"
)

// VideoStore keeps the uploaded match videos in an object bucket, one object
// per match under "matches/<id>/<filename>".
type VideoStore struct {
	client *minio.Client
	bucket string
}

func NewVideoStore(cfg config.MinIOConfig) (*VideoStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &VideoStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *VideoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// VideoKey builds the object key for a match upload.
func VideoKey(matchID, filename string) string {
	if filename == "" {
		filename = "match.mp4"
	}
	return fmt.Sprintf("matches/%s/%s", matchID, filename)
}

// PutVideo streams an uploaded video into the bucket.
func (s *VideoStore) PutVideo(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put video %s: %w", key, err)
	}
	return nil
}

// OpenVideo returns a reader over the stored video plus its size and content
// type. The caller owns closing the reader.
func (s *VideoStore) OpenVideo(ctx context.Context, key string) (io.ReadCloser, int64, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, "", fmt.Errorf("get video %s: %w", key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, "", fmt.Errorf("stat video %s: %w", key, err)
	}
	return obj, info.Size, info.ContentType, nil
}

// FetchVideo downloads the stored video to a local file path (used by the
// worker, which hands a filesystem path to the model command).
func (s *VideoStore) FetchVideo(ctx context.Context, key, destPath string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("fetch video %s: %w", key, err)
	}
	return nil
}

// DeleteMatchObjects removes every object stored under the match's prefix.
func (s *VideoStore) DeleteMatchObjects(ctx context.Context, matchID string) error {
	prefix := fmt.Sprintf("matches/%s/", matchID)
	objectsCh := make(chan minio.ObjectInfo)
	go func() {
		defer close(objectsCh)
		for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return
			}
			objectsCh <- obj
		}
	}()
	for result := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return fmt.Errorf("delete object %s: %w", result.ObjectName, result.Err)
		}
	}
	return nil
}

// Ping checks MinIO connectivity.
func (s *VideoStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
