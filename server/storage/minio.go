package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"inspection_server/server/common/infra/object"
	"inspection_server/server/domain"
)

// MinIOStore keeps attachments in an object storage bucket using the same
// "<id>_<original-name>" keys as DiskStore.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(ctx context.Context, client *minio.Client, bucket string) (*MinIOStore, error) {
	if err := object.EnsureBucket(ctx, client, bucket); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}
	return &MinIOStore{client: client, bucket: bucket}, nil
}

func (s *MinIOStore) Save(ctx context.Context, id, originalName string, data []byte) error {
	name := sanitizeName(originalName)
	if name == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}
	return s.put(ctx, id+"_"+name, data, "application/octet-stream")
}

func (s *MinIOStore) Open(ctx context.Context, id string) (io.ReadCloser, Info, error) {
	key, err := s.find(ctx, id)
	if err != nil {
		return nil, Info{}, err
	}
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: stat %s: %v", domain.ErrStorage, key, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: get %s: %v", domain.ErrStorage, key, err)
	}
	info := Info{
		ID:           id,
		OriginalName: strings.TrimPrefix(key, id+"_"),
		SizeBytes:    stat.Size,
		ModTime:      stat.LastModified,
	}
	return obj, info, nil
}

func (s *MinIOStore) SaveThumbnail(ctx context.Context, id string, data []byte) error {
	return s.put(ctx, id+thumbSuffix, data, "image/jpeg")
}

func (s *MinIOStore) OpenThumbnail(ctx context.Context, id string) (io.ReadCloser, error) {
	key := id + thumbSuffix
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("%w: no thumbnail for %s", domain.ErrNotFound, id)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get thumbnail for %s: %v", domain.ErrStorage, id, err)
	}
	return obj, nil
}

func (s *MinIOStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

func (s *MinIOStore) find(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: attachment %q", domain.ErrNotFound, id)
	}
	prefix := id + "_"
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return "", fmt.Errorf("%w: list %s: %v", domain.ErrStorage, prefix, obj.Err)
		}
		return obj.Key, nil
	}
	return "", fmt.Errorf("%w: attachment %q", domain.ErrNotFound, id)
}
