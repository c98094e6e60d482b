package http

import (
	"log/slog"
	"net/http"

	"github.com/Volatile-Viv/Try-Karo/internal/service"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// UserHandler handles HTTP requests for account, profile and insights
// endpoints.
type UserHandler struct {
	users    *service.UserService
	insights *service.InsightsService
	logger   *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, insights *service.InsightsService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, insights: insights, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration. Field rules
// live in the service so the messages match the login form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the JSON request body for a profile update.
type UpdateProfileRequest struct {
	Name      *string  `json:"name" validate:"omitempty,max=50"`
	Bio       *string  `json:"bio" validate:"omitempty,max=500"`
	Avatar    *string  `json:"avatar"`
	Age       *int     `json:"age" validate:"omitempty,gte=13,lte=120"`
	Gender    *string  `json:"gender"`
	Interests []string `json:"interests" validate:"omitempty,max=50"`
}

// ChangePasswordRequest is the JSON request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"`
}

// --- Handlers ---

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	session, err := h.users.Register(r.Context(), &service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeSession(w, http.StatusCreated, session)
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	session, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	writeSession(w, http.StatusOK, session)
}

// Me handles GET /api/users/me and GET /api/users/profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), actor(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req UpdateProfileRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), actor(r).ID, &service.UpdateProfileInput{
		Name:      req.Name,
		Bio:       req.Bio,
		Avatar:    req.Avatar,
		Age:       req.Age,
		Gender:    req.Gender,
		Interests: req.Interests,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/users/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r, maxJSONBody)

	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	session, err := h.users.ChangePassword(r.Context(), actor(r).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Success: true, Token: session.Token})
}

// Insights handles GET /api/users/insights
func (h *UserHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.ForBrand(r.Context(), actor(r).ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, insights)
}

func writeSession(w http.ResponseWriter, status int, session *service.Session) {
	httputil.WriteJSON(w, status, httputil.Response{
		Success: true,
		Token:   session.Token,
		User:    session.User.Account(),
	})
}
