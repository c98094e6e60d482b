package storage

import (
	"context"
)

// Storage defines the interface for image storage operations.
type Storage interface {
	// Upload stores an image and returns its public id and URL.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)
}

// UploadInput holds the parameters for uploading an image.
type UploadInput struct {
	// File is a data URI ("data:image/png;base64,...") or a remote http(s) URL.
	File   string
	Folder string
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}
