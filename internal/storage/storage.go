// Package storage uploads and removes user images on an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"Marketplace/internal/config"
)

var (
	ErrDisabled        = errors.New("image storage is not configured")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds size limit")
	ErrObjectNotFound  = errors.New("object not found")
)

// ImageStore persists uploaded images. Upload returns the value to store on the
// record: either an absolute URL or a key relative to /storage/.
type ImageStore interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, stored string) error
}

// ObjectReader is implemented by stores whose keys are served back by this API.
type ObjectReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// ImageRule constrains an upload before it reaches the store.
type ImageRule struct {
	MaxBytes int64
	Allowed  []string
}

var (
	ProfileImageRule = ImageRule{MaxBytes: 2 << 20, Allowed: []string{"image/jpeg", "image/png", "image/gif"}}
	ListingImageRule = ImageRule{MaxBytes: 5 << 20, Allowed: []string{"image/jpeg", "image/png"}}
)

// Check enforces the rule and returns the detected MIME type.
func (r ImageRule) Check(file *multipart.FileHeader) (*mimetype.MIME, error) {
	if r.MaxBytes > 0 && file.Size > r.MaxBytes {
		return nil, ErrTooLarge
	}
	mt, err := Sniff(file)
	if err != nil {
		return nil, err
	}
	for _, allowed := range r.Allowed {
		if mt.Is(allowed) {
			return mt, nil
		}
	}
	return nil, ErrUnsupportedType
}

// Sniff detects the MIME type from the file content, ignoring the client's header.
func Sniff(file *multipart.FileHeader) (*mimetype.MIME, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return mt, nil
}

// ObjectKey builds a collision-free key under folder keeping ext.
func ObjectKey(folder, ext string) string {
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}

// Disabled rejects every upload; used when STORAGE_DRIVER=none.
type Disabled struct{}

func (Disabled) Upload(context.Context, *multipart.FileHeader, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Delete(context.Context, string) error {
	return nil
}

// New builds the ImageStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "cloudinary":
		return NewCloudinary(cfg.Cloudinary)
	case "minio":
		m, err := NewMinio(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare minio bucket: %w", err)
		}
		return m, nil
	default:
		return Disabled{}, nil
	}
}
