package service

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/storage"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/httpclient"
	"github.com/Volatile-Viv/Try-Karo/pkg/slug"
)

// DefaultUploadFolder is used when the client does not name a folder.
const DefaultUploadFolder = "try-karo"

// UploadService proxies image uploads to the object store.
type UploadService struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(store storage.Storage, logger *slog.Logger) *UploadService {
	return &UploadService{store: store, logger: logger}
}

// Upload stores an image given as a data URI, a bare base64 string or a
// remote URL.
func (s *UploadService) Upload(ctx context.Context, image, folder string) (*storage.UploadResult, error) {
	file, err := normalizeImage(image)
	if err != nil {
		return nil, err
	}

	folder = slug.Path(folder)
	if folder == "" {
		folder = DefaultUploadFolder
	}

	result, err := s.store.Upload(ctx, &storage.UploadInput{File: file, Folder: folder})
	if err != nil {
		attrs := append([]any{slog.String("folder", folder)}, httpclient.ErrorAttrs(err)...)
		s.logger.ErrorContext(ctx, "image upload failed", attrs...)
		return nil, apperrors.Upstream("Image upload failed", err)
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("public_id", result.PublicID),
	)

	return result, nil
}

// normalizeImage turns a bare base64 payload into a data URI. Data URIs and
// http(s) URLs pass through unchanged.
func normalizeImage(image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", apperrors.InvalidInput("Please provide an image")
	}

	lower := strings.ToLower(image)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return image, nil
	}

	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return "", apperrors.InvalidInput("Invalid image data")
	}
	return "data:image/png;base64," + image, nil
}
