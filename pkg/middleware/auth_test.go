package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/logger"
)

func staticValidator(claims *Claims, err error) TokenValidator {
	return func(ctx context.Context, token string) (*Claims, error) {
		if token != "good-token" {
			return nil, errors.New("signature is invalid")
		}
		return claims, err
	}
}

func TestAuth_MissingOrMalformedHeader(t *testing.T) {
	headers := []string{"", "good-token", "Basic good-token", "Bearer ", "Bearer"}

	for _, h := range headers {
		t.Run(h, func(t *testing.T) {
			mw := Auth(staticValidator(&Claims{UserID: "u1", Role: "Tester"}, nil))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if h != "" {
				req.Header.Set("Authorization", h)
			}

			mw(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Not authorized to access this resource", body["message"])
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	mw := Auth(staticValidator(&Claims{UserID: "u1"}, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")

	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized to access this resource", decodeEnvelope(t, rec)["message"])
}

func TestAuth_ValidatorAppErrorIsRendered(t *testing.T) {
	mw := Auth(staticValidator(nil, apperrors.Unauthorized("User no longer exists")))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	mw(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User no longer exists", decodeEnvelope(t, rec)["message"])
}

func TestAuth_StoresClaims(t *testing.T) {
	var gotID, gotRole, logUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		logUser = logger.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	mw := Auth(staticValidator(&Claims{UserID: "u-42", Role: "Brand"}, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good-token")

	mw(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u-42", gotID)
	assert.Equal(t, "Brand", gotRole)
	assert.Equal(t, "u-42", logUser)
}

type mockEnforcer struct {
	mock.Mock
}

func (m *mockEnforcer) Enforce(rvals ...any) (bool, error) {
	args := m.Called(rvals...)
	return args.Bool(0), args.Error(1)
}

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	if role == "" {
		return req
	}
	return req.WithContext(withClaims(req.Context(), &Claims{UserID: "u1", Role: role}))
}

func TestRequirePermission_Allowed(t *testing.T) {
	e := new(mockEnforcer)
	e.On("Enforce", "Brand", "product", "create").Return(true, nil)

	rec := httptest.NewRecorder()
	RequirePermission(e, "product", "create", "")(okHandler()).ServeHTTP(rec, requestAs("Brand"))

	assert.Equal(t, http.StatusOK, rec.Code)
	e.AssertExpectations(t)
}

func TestRequirePermission_DeniedDefaultMessage(t *testing.T) {
	e := new(mockEnforcer)
	e.On("Enforce", "Tester", "product", "create").Return(false, nil)

	rec := httptest.NewRecorder()
	RequirePermission(e, "product", "create", "")(okHandler()).ServeHTTP(rec, requestAs("Tester"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User role Tester is not authorized to access this resource", decodeEnvelope(t, rec)["message"])
}

func TestRequirePermission_DeniedCustomMessage(t *testing.T) {
	e := new(mockEnforcer)
	e.On("Enforce", "Tester", "insights", "read").Return(false, nil)

	rec := httptest.NewRecorder()
	RequirePermission(e, "insights", "read", "Only brands can access user insights")(okHandler()).ServeHTTP(rec, requestAs("Tester"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only brands can access user insights", decodeEnvelope(t, rec)["message"])
}

func TestRequirePermission_NoRole(t *testing.T) {
	e := new(mockEnforcer)

	rec := httptest.NewRecorder()
	RequirePermission(e, "product", "create", "")(okHandler()).ServeHTTP(rec, requestAs(""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User role not defined", decodeEnvelope(t, rec)["message"])
	e.AssertNotCalled(t, "Enforce", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequirePermission_EnforcerError(t *testing.T) {
	e := new(mockEnforcer)
	e.On("Enforce", "Brand", "product", "create").Return(false, errors.New("policy not loaded"))

	rec := httptest.NewRecorder()
	req := requestAs("Brand")
	req = req.WithContext(logger.NewContext(req.Context(), discardLogger()))
	RequirePermission(e, "product", "create", "")(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", decodeEnvelope(t, rec)["message"])
}
