// Package cloudinary uploads images through the Cloudinary upload API.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Volatile-Viv/Try-Karo/internal/storage"
	"github.com/Volatile-Viv/Try-Karo/pkg/httpclient"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Config holds Cloudinary account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// BaseURL overrides the API root, mainly for tests.
	BaseURL string
}

// Storage implements storage.Storage against Cloudinary.
type Storage struct {
	cfg    Config
	client *httpclient.CircuitBreakerClient
	now    func() time.Time
}

// New creates a Cloudinary storage backed by the given resilient client.
func New(cfg Config, client *httpclient.CircuitBreakerClient) *Storage {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Storage{cfg: cfg, client: client, now: time.Now}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Upload sends a signed upload request and returns the stored image's
// public id and HTTPS URL.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	params := map[string]string{
		"timestamp":       strconv.FormatInt(s.now().Unix(), 10),
		"use_filename":    "true",
		"unique_filename": "true",
	}
	if input.Folder != "" {
		params["folder"] = input.Folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	fields := map[string]string{
		"api_key":   s.cfg.APIKey,
		"signature": Sign(params, s.cfg.APISecret),
		"file":      input.File,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.CloudName)
	resp, err := s.client.Post(ctx, url, w.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}

	var out uploadResponse
	if err := httpclient.DecodeResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if out.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload: response has no secure_url")
	}

	return &storage.UploadResult{PublicID: out.PublicID, URL: out.SecureURL}, nil
}

// Sign computes the Cloudinary request signature: the hex SHA-1 of the
// sorted key=value pairs joined with '&', followed by the API secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
