package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// ReviewHandler handles HTTP requests for review and comment endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	Rating *int   `json:"rating" validate:"required,gte=1,lte=5"`
	Text   string `json:"text" validate:"required,max=1000"`
	Image  string `json:"image"`
}

// UpdateReviewRequest is the JSON request body for updating a review.
type UpdateReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Text   *string `json:"text" validate:"omitempty,min=1,max=1000"`
	Image  *string `json:"image"`
}

// CommentRequest is the JSON request body for adding a comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// --- Handlers ---

// ListByProduct handles GET /api/products/{id}/reviews
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListByProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, reviews)
}

// Create handles POST /api/products/{id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.Create(r.Context(), actor(r), chi.URLParam(r, "id"), &service.CreateReviewInput{
		Rating: *req.Rating,
		Text:   req.Text,
		Image:  req.Image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}

// ListMine handles GET /api/reviews/me
func (h *ReviewHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListMine(r.Context(), actor(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, reviews)
}

// Get handles GET /api/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// Update handles PUT /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req UpdateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.Update(r.Context(), actor(r), chi.URLParam(r, "id"), &service.UpdateReviewInput{
		Rating: req.Rating,
		Text:   req.Text,
		Image:  req.Image,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// Delete handles DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, struct{}{})
}

// AddComment handles POST /api/reviews/{id}/comments
func (h *ReviewHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req CommentRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.AddComment(r.Context(), actor(r), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}

// DeleteComment handles DELETE /api/reviews/{id}/comments/{commentId}
func (h *ReviewHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.DeleteComment(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "commentId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, review)
}
