package cloudinary

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/utafrali/VideoTubeGo/internal/storage"
)

// assetUploader is the part of the Cloudinary upload API this package uses.
type assetUploader interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Config holds Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Storage implements storage.Uploader on Cloudinary.
type Storage struct {
	api    assetUploader
	folder string
}

// New creates a Cloudinary-backed uploader.
func New(cfg Config) (*Storage, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &Storage{api: &cld.Upload, folder: cfg.Folder}, nil
}

// Upload sends the staged file with automatic resource type detection. The
// staged file is removed in every case.
func (s *Storage) Upload(ctx context.Context, localPath string) (*storage.UploadResult, error) {
	defer func() { _ = storage.RemoveStaged(localPath) }()

	if _, err := storage.CheckStaged(localPath); err != nil {
		return nil, fmt.Errorf("upload %q: %w", localPath, err)
	}

	resp, err := s.api.Upload(ctx, localPath, uploader.UploadParams{
		ResourceType: "auto",
		Folder:       s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return nil, errors.New("cloudinary upload: response has no url")
	}

	return &storage.UploadResult{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
