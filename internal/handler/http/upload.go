package http

import (
	"log/slog"
	"net/http"

	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// UploadHandler handles image uploads.
type UploadHandler struct {
	service *service.UploadService
	logger  *slog.Logger
}

// NewUploadHandler creates a new upload HTTP handler.
func NewUploadHandler(svc *service.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{service: svc, logger: logger}
}

// UploadRequest carries a data URI, bare base64 payload or remote URL.
type UploadRequest struct {
	Image  string `json:"image"`
	Folder string `json:"folder"`
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxUploadBody)

	var req UploadRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Upload(r.Context(), req.Image, req.Folder)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}
