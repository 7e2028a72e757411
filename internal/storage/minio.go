package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"Marketplace/internal/config"
)

// Minio stores images in an S3-compatible bucket and records their object key.
type Minio struct {
	client *minio.Client
	bucket string
}

func NewMinio(cfg config.MinioConfig) (*Minio, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

func (m *Minio) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	mt, err := Sniff(file)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	key := ObjectKey(folder, mt.Extension())
	_, err = m.client.PutObject(ctx, m.bucket, key, src, file.Size, minio.PutObjectOptions{
		ContentType: mt.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return key, nil
}

func (m *Minio) Delete(ctx context.Context, stored string) error {
	if stored == "" || strings.HasPrefix(stored, "http") {
		return nil
	}
	return m.client.RemoveObject(ctx, m.bucket, stored, minio.RemoveObjectOptions{})
}

// Open returns the object body and its content type.
func (m *Minio) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return obj, info.ContentType, nil
}
