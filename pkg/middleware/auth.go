package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/httputil"
	"github.com/Volatile-Viv/Try-Karo/pkg/logger"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

const notAuthorized = "Not authorized to access this resource"

// Claims identifies the authenticated caller.
type Claims struct {
	UserID string
	Role   string
}

// TokenValidator verifies a bearer token and resolves the caller. Returning
// an *apperrors.AppError controls the response; any other error is treated
// as an invalid token.
type TokenValidator func(ctx context.Context, token string) (*Claims, error)

// Auth requires a valid bearer token and stores the caller in the context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteMessage(w, r, http.StatusUnauthorized, notAuthorized)
				return
			}

			claims, err := validate(r.Context(), token)
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					httputil.WriteError(w, r, appErr, nil)
					return
				}
				httputil.WriteMessage(w, r, http.StatusUnauthorized, notAuthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, c.UserID)
	ctx = context.WithValue(ctx, roleKey, c.Role)
	ctx = logger.WithUser(ctx, c.UserID, c.Role)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(
		slog.String("user_id", c.UserID),
		slog.String("role", c.Role),
	))
}

// Enforcer decides whether a subject may perform act on obj. A casbin
// enforcer satisfies it.
type Enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

// RequirePermission rejects callers whose role is not granted (obj, act) by
// the enforcer. denyMessage overrides the default 403 message when set.
func RequirePermission(e Enforcer, obj, act, denyMessage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				httputil.WriteMessage(w, r, http.StatusForbidden, "User role not defined")
				return
			}

			allowed, err := e.Enforce(role, obj, act)
			if err != nil {
				httputil.WriteError(w, r, fmt.Errorf("enforce %s %s for %s: %w", act, obj, role, err), nil)
				return
			}
			if !allowed {
				msg := denyMessage
				if msg == "" {
					msg = fmt.Sprintf("User role %s is not authorized to access this resource", role)
				}
				httputil.WriteMessage(w, r, http.StatusForbidden, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the user role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}
