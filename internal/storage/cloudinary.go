package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"Marketplace/internal/config"
)

// Cloudinary stores images on Cloudinary and records their secure URL.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("Cloudinary credentials not set in environment variables")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

// Upload uploads a file to Cloudinary
func (s *Cloudinary) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	key := ObjectKey(folder, "")
	result, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:         path.Join(s.folder, path.Dir(key)),
		PublicID:       path.Base(key),
		ResourceType:   "image",
		AllowedFormats: []string{"jpg", "jpeg", "png", "gif"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload to Cloudinary: %s", result.Error.Message)
	}

	return result.SecureURL, nil
}

// Delete deletes a file from Cloudinary
func (s *Cloudinary) Delete(ctx context.Context, stored string) error {
	publicID := PublicIDFromURL(stored)
	if publicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from Cloudinary: %w", err)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+/`)

// PublicIDFromURL recovers the public ID from a Cloudinary delivery URL.
func PublicIDFromURL(u string) string {
	_, rest, found := strings.Cut(u, "/upload/")
	if !found {
		return ""
	}
	rest = versionSegment.ReplaceAllString(rest, "")
	return strings.TrimSuffix(rest, path.Ext(rest))
}
