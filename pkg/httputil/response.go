package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/logger"
	"github.com/Volatile-Viv/Try-Karo/pkg/validator"
)

// Response is the JSON envelope every endpoint answers with. Success is always
// present; the remaining fields appear only when an operation sets them.
type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	RequestID  string       `json:"requestId,omitempty"`
	Token      string       `json:"token,omitempty"`
	User       any          `json:"user,omitempty"`
	Count      *int         `json:"count,omitempty"`
	Total      *int64       `json:"total,omitempty"`
	Pagination any          `json:"pagination,omitempty"`
	Data       any          `json:"data,omitempty"`
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code. Encoding errors are
// dropped because the headers have already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope carrying data.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Success: true, Data: data})
}

// WriteList writes a success envelope for a collection, with count set to
// the number of items returned.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	count := len(items)
	WriteJSON(w, http.StatusOK, Response{Success: true, Count: &count, Data: items})
}

// WriteMessage writes an error envelope with a plain message.
func WriteMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSON(w, status, failure(r, message))
}

// failure is the error envelope shared by every error writer.
func failure(r *http.Request, message string) Response {
	return Response{
		Success:   false,
		Message:   message,
		RequestID: logger.RequestIDFromContext(r.Context()),
	}
}

// WriteError writes an error envelope derived from err. AppErrors render their
// own message and status; sentinel errors map to generic messages; anything
// else becomes a 500 and is logged with the request-scoped logger when the
// RequestLogger middleware is mounted, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, r, valErr)
		return
	}

	status := apperrors.HTTPStatus(err)
	message := "Server error"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			message = "Resource not found"
		case errors.Is(err, apperrors.ErrAlreadyExists):
			message = "Resource already exists"
		case errors.Is(err, apperrors.ErrConflict):
			message = "Request conflicts with the current state"
		case errors.Is(err, apperrors.ErrInvalidInput):
			message = err.Error()
		case errors.Is(err, apperrors.ErrUnauthorized):
			message = "Not authorized to access this resource"
		case errors.Is(err, apperrors.ErrForbidden):
			message = "Forbidden"
		}
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, failure(r, message))
}

func writeValidation(w http.ResponseWriter, r *http.Request, valErr *validator.ValidationError) {
	fields := valErr.Fields()
	errs := make([]FieldError, 0, len(fields))
	for _, f := range valErr.FieldNames() {
		errs = append(errs, FieldError{Field: f, Message: fields[f]})
	}

	message := "Validation failed"
	if len(errs) > 0 {
		message = errs[0].Message
	}

	resp := failure(r, message)
	resp.Errors = errs
	WriteJSON(w, http.StatusBadRequest, resp)
}
