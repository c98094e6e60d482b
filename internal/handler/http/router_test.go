package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Volatile-Viv/Try-Karo/internal/auth"
	"github.com/Volatile-Viv/Try-Karo/internal/authz"
	"github.com/Volatile-Viv/Try-Karo/internal/domain"
	"github.com/Volatile-Viv/Try-Karo/internal/llm/offline"
	"github.com/Volatile-Viv/Try-Karo/internal/repository/memory"
	"github.com/Volatile-Viv/Try-Karo/internal/service"
	storagemem "github.com/Volatile-Viv/Try-Karo/internal/storage/memory"
	"github.com/Volatile-Viv/Try-Karo/pkg/health"
	"github.com/Volatile-Viv/Try-Karo/pkg/middleware"
)

const testJWTSecret = "test-secret-key-for-testing-only-32b"

type testEnv struct {
	router  http.Handler
	store   *memory.Store
	tokens  *auth.JWTManager
	objects *storagemem.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	tokens := auth.NewJWTManager(testJWTSecret, time.Hour)
	objects := storagemem.New("https://img.test")
	ratings := service.NewRatingAggregator(store.Products(), store.Reviews(), logger)

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := Services{
		Users:    service.NewUserService(store.Users(), tokens, logger),
		Products: service.NewProductService(store.Products(), store.Reviews(), store.Users(), logger),
		Reviews:  service.NewReviewService(store.Reviews(), store.Products(), store.Users(), ratings, logger),
		Insights: service.NewInsightsService(store.Products(), store.Reviews(), store.Users(), logger),
		Uploads:  service.NewUploadService(objects, logger),
		Chat:     service.NewChatService(offline.New(), logger),
	}

	router := NewRouter(ctx, svc, enforcer, health.NewHandler(), RouterConfig{
		ServiceName:   "try-karo-test",
		CORS:          middleware.DefaultCORSConfig(),
		ChatRateLimit: 3,
	}, logger)

	return &testEnv{router: router, store: store, tokens: tokens, objects: objects}
}

// seedUser stores a user directly and returns its id and a bearer token.
func (e *testEnv) seedUser(t *testing.T, name, role string) (string, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Gender:       domain.GenderNotSpecified,
		Interests:    []string{},
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))

	token, err := e.tokens.GenerateToken(user.ID, role)
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func assertMessage(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, message, body["message"])
}

func (e *testEnv) createProduct(t *testing.T, token string, body map[string]any) string {
	t.Helper()
	payload := map[string]any{
		"title": "Widget", "description": "A widget", "category": "game",
		"link": "example.com", "price": 100,
	}
	for k, v := range body {
		payload[k] = v
	}

	rec := e.do(t, http.MethodPost, "/api/products", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["data"].(map[string]any)["_id"].(string)
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/nope", "", nil)
	assertMessage(t, rec, http.StatusNotFound, "Route not found")

	rec = env.do(t, http.MethodGet, "/api/products", "", nil)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/register", "", map[string]any{
		"name": "Tess", "email": "Tess@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "tess@example.com", user["email"])
	assert.Equal(t, domain.RoleTester, user["role"])
	assert.NotEmpty(t, user["id"])

	rec = env.do(t, http.MethodPost, "/api/users/register", "", map[string]any{
		"name": "Tess again", "email": "tess@example.com", "password": "secret123",
	})
	assertMessage(t, rec, http.StatusConflict, "User already exists")

	rec = env.do(t, http.MethodPost, "/api/users/login", "", map[string]any{
		"email": "tess@example.com", "password": "wrong-password",
	})
	assertMessage(t, rec, http.StatusUnauthorized, "Invalid credentials")

	rec = env.do(t, http.MethodPost, "/api/users/login", "", map[string]any{
		"email": "tess@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["token"].(string)

	rec = env.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Tess", me["name"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "passwordHash")
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/register", "", map[string]any{
		"name": "Root", "email": "root@example.com", "password": "secret123", "role": domain.RoleAdmin,
	})
	assertMessage(t, rec, http.StatusBadRequest, "Role must be Brand or Tester")

	rec = env.do(t, http.MethodPost, "/api/users/register", "", `{"name":`)
	assertMessage(t, rec, http.StatusBadRequest, "Invalid request body")
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users/me", "", nil)
	assertMessage(t, rec, http.StatusUnauthorized, "Not authorized to access this resource")

	rec = env.do(t, http.MethodGet, "/api/users/me", "garbage", nil)
	assertMessage(t, rec, http.StatusUnauthorized, "Not authorized to access this resource")

	ghost, err := env.tokens.GenerateToken("ghost-id", domain.RoleTester)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/users/me", ghost, nil)
	assertMessage(t, rec, http.StatusUnauthorized, "User no longer exists")
}

func TestProfileAndPassword(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Tess", domain.RoleTester)

	rec := env.do(t, http.MethodPut, "/api/users/profile", token, map[string]any{
		"bio": "I test things", "age": 29, "gender": domain.GenderFemale, "interests": []string{"games", "games", "music"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "I test things", data["bio"])
	assert.Equal(t, []any{"games", "music"}, data["interests"])

	rec = env.do(t, http.MethodPut, "/api/users/profile", token, map[string]any{"age": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/users/password", token, map[string]any{
		"currentPassword": "nope-nope", "newPassword": "another1",
	})
	assertMessage(t, rec, http.StatusUnauthorized, "Current password is incorrect")
}

func TestProductCreate_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	_, testerToken := env.seedUser(t, "Tess", domain.RoleTester)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)

	rec := env.do(t, http.MethodPost, "/api/products", testerToken, map[string]any{
		"title": "Widget", "description": "d", "category": "game", "link": "example.com", "price": 1,
	})
	assertMessage(t, rec, http.StatusForbidden, "User role Tester is not authorized to access this resource")

	rec = env.do(t, http.MethodPost, "/api/products", brandToken, map[string]any{
		"title": "Widget", "category": "toys", "link": "not a link",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	errs := body["errors"].([]any)
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.(map[string]any)["field"].(string))
	}
	assert.ElementsMatch(t, []string{"description", "category", "link", "price"}, fields)

	rec = env.do(t, http.MethodPost, "/api/products", brandToken, map[string]any{
		"title": "Widget", "description": "d", "category": "Food", "link": "example.com",
		"price": 0, "manageInventory": false,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(domain.UnlimitedInventory), data["inventory"])
	assert.Equal(t, true, data["inStock"])
	assert.Equal(t, "INR", data["currency"])
}

func TestProductList(t *testing.T) {
	env := newTestEnv(t)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)

	env.createProduct(t, brandToken, map[string]any{"title": "Retro Console", "price": 300})
	env.createProduct(t, brandToken, map[string]any{"title": "Espresso Beans", "category": "Food", "price": 20})
	env.createProduct(t, brandToken, map[string]any{"title": "Retro Joystick", "price": 50, "tags": []string{"arcade"}})

	rec := env.do(t, http.MethodGet, "/api/products?limit=2&sort=price&select=title,price", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, map[string]any{"next": map[string]any{"page": float64(2), "limit": float64(2)}}, body["pagination"])

	data := body["data"].([]any)
	first := data[0].(map[string]any)
	assert.Equal(t, "Espresso Beans", first["title"])
	assert.ElementsMatch(t, []string{"_id", "title", "price"}, keys(first))

	rec = env.do(t, http.MethodGet, "/api/products?search=retro&price[lt]=100", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(1), body["total"])
	item := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Retro Joystick", item["title"])
	assert.Equal(t, "Acme", item["maker"].(map[string]any)["name"])

	rec = env.do(t, http.MethodGet, "/api/products?sort=color", "", nil)
	assertMessage(t, rec, http.StatusBadRequest, "unsupported sort field: color")

	rec = env.do(t, http.MethodGet, "/api/products?price[gte]=cheap", "", nil)
	assertMessage(t, rec, http.StatusBadRequest, "price[gte] must be a number")

	rec = env.do(t, http.MethodGet, "/api/products?status=archived", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/user", brandToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec)["count"])
}

func TestProductInventoryAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)
	_, rivalToken := env.seedUser(t, "Globex", domain.RoleBrand)
	_, testerToken := env.seedUser(t, "Tess", domain.RoleTester)

	id := env.createProduct(t, brandToken, map[string]any{"inventory": 3})

	rec := env.do(t, http.MethodPut, "/api/products/"+id+"/inventory", brandToken, map[string]any{})
	assertMessage(t, rec, http.StatusBadRequest, "Quantity is required")

	rec = env.do(t, http.MethodPut, "/api/products/"+id+"/inventory", rivalToken, map[string]any{"quantity": 1})
	assertMessage(t, rec, http.StatusForbidden, "Not authorized to update this product")

	rec = env.do(t, http.MethodPut, "/api/products/"+id, rivalToken, map[string]any{"title": "Mine"})
	assertMessage(t, rec, http.StatusForbidden, "Not authorized to update this product")

	rec = env.do(t, http.MethodDelete, "/api/products/"+id, rivalToken, nil)
	assertMessage(t, rec, http.StatusForbidden, "Not authorized to delete this product")

	rec = env.do(t, http.MethodPut, "/api/products/"+id+"/checkout", testerToken, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["inventory"])
	assert.Equal(t, true, data["inStock"])

	rec = env.do(t, http.MethodPut, "/api/products/"+id+"/inventory", brandToken, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	data = decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), data["inventory"])
	assert.Equal(t, false, data["inStock"])

	rec = env.do(t, http.MethodGet, "/api/products/does-not-exist", "", nil)
	assertMessage(t, rec, http.StatusNotFound, "Product not found")

	rec = env.do(t, http.MethodDelete, "/api/products/"+id, brandToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{}, decode(t, rec)["data"])
}

func TestErrorResponsesCarryRequestID(t *testing.T) {
	env := newTestEnv(t)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)
	_, testerToken := env.seedUser(t, "Tess", domain.RoleTester)
	id := env.createProduct(t, brandToken, map[string]any{"inventory": 3})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"missing quantity", http.MethodPut, "/api/products/" + id + "/checkout", testerToken, map[string]any{}, http.StatusBadRequest},
		{"no token", http.MethodGet, "/api/users/me", "", nil, http.StatusUnauthorized},
		{"role gate", http.MethodPost, "/api/products", testerToken, map[string]any{"title": "Nope"}, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nowhere", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			header := rec.Header().Get(middleware.RequestIDHeader)
			require.NotEmpty(t, header)
			assert.Equal(t, header, decode(t, rec)["requestId"])
		})
	}
}

func TestReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)
	_, testerToken := env.seedUser(t, "Tess", domain.RoleTester)

	id := env.createProduct(t, brandToken, nil)
	path := "/api/products/" + id + "/reviews"

	rec := env.do(t, http.MethodPost, path, brandToken, map[string]any{"rating": 5, "text": "Mine is great"})
	assertMessage(t, rec, http.StatusForbidden, "User role Brand is not authorized to access this resource")

	rec = env.do(t, http.MethodPost, path, testerToken, map[string]any{"rating": 7, "text": "Too good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, testerToken, map[string]any{"rating": 0, "text": "Zero"})
	assertMessage(t, rec, http.StatusBadRequest, "rating must be greater than or equal to 1")

	rec = env.do(t, http.MethodPost, path, testerToken, map[string]any{"text": "No rating"})
	assertMessage(t, rec, http.StatusBadRequest, "rating is required")

	rec = env.do(t, http.MethodPost, path, testerToken, map[string]any{"rating": 5, "text": "Love it"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode(t, rec)["data"].(map[string]any)
	reviewID := review["_id"].(string)
	assert.Equal(t, "Tess", review["tester"].(map[string]any)["name"])

	rec = env.do(t, http.MethodPost, path, testerToken, map[string]any{"rating": 1, "text": "Again"})
	assertMessage(t, rec, http.StatusConflict, "You have already reviewed this product")

	rec = env.do(t, http.MethodGet, "/api/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	product := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(5), product["avgRating"])
	assert.Equal(t, float64(1), product["totalRatings"])
	assert.Len(t, product["reviews"], 1)

	rec = env.do(t, http.MethodPost, "/api/reviews/"+reviewID+"/comments", brandToken, map[string]any{"text": "Thanks!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	comments := decode(t, rec)["data"].(map[string]any)["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, domain.RoleBrand, comment["user"].(map[string]any)["role"])

	rec = env.do(t, http.MethodDelete, "/api/reviews/"+reviewID+"/comments/"+comment["_id"].(string), testerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/reviews/me", testerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode(t, rec)
	assert.Equal(t, float64(1), mine["count"])

	rec = env.do(t, http.MethodPut, "/api/reviews/"+reviewID, brandToken, map[string]any{"rating": 1})
	assertMessage(t, rec, http.StatusForbidden, "Not authorized to update this review")

	rec = env.do(t, http.MethodDelete, "/api/reviews/"+reviewID, testerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func TestInsights_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	_, brandToken := env.seedUser(t, "Acme", domain.RoleBrand)
	_, testerToken := env.seedUser(t, "Tess", domain.RoleTester)

	rec := env.do(t, http.MethodGet, "/api/users/insights", testerToken, nil)
	assertMessage(t, rec, http.StatusForbidden, "Only brands can access user insights")

	rec = env.do(t, http.MethodGet, "/api/users/insights", brandToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), data["reviewCount"])
	assert.Equal(t, []any{}, data["productPerformance"])
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "Tess", domain.RoleTester)

	rec := env.do(t, http.MethodPost, "/api/upload", "", map[string]any{"image": "AAAA"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/upload", token, map[string]any{})
	assertMessage(t, rec, http.StatusBadRequest, "Please provide an image")

	rec = env.do(t, http.MethodPost, "/api/upload", token, map[string]any{"image": "AAAA", "folder": "Avatars"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]any)
	publicID := data["public_id"].(string)
	assert.True(t, strings.HasPrefix(publicID, "avatars/"))
	assert.Equal(t, "https://img.test/"+publicID, data["url"])

	stored, ok := env.objects.Get(publicID)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,AAAA", stored)

	huge := `{"image":"` + strings.Repeat("A", maxUploadBody) + `"}`
	rec = env.do(t, http.MethodPost, "/api/upload", token, huge)
	assertMessage(t, rec, http.StatusBadRequest, "Request body too large")
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat/message", "", map[string]any{})
	assertMessage(t, rec, http.StatusBadRequest, "Message is required")

	rec = env.do(t, http.MethodPost, "/api/chat/message", "", map[string]any{
		"message":  "How do I write a review?",
		"messages": []map[string]string{{"sender": "user", "text": "hi"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, offline.Response, body["text"])
	assert.Equal(t, "agent", body["sender"])

	rec = env.do(t, http.MethodPost, "/api/chat/message", "", map[string]any{"message": "again"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/chat/message", "", map[string]any{"message": "and again"})
	assertMessage(t, rec, http.StatusTooManyRequests, "Too many requests, please try again later")
}

func TestParseRange(t *testing.T) {
	q := map[string][]string{"price[gte]": {"10"}, "price[lt]": {"99.5"}}
	rng, err := parseRange(q, "price")
	require.NoError(t, err)
	require.NotNil(t, rng.Gte)
	require.NotNil(t, rng.Lt)
	assert.Equal(t, 10.0, *rng.Gte)
	assert.Equal(t, 99.5, *rng.Lt)
	assert.Nil(t, rng.Gt)
	assert.Nil(t, rng.Lte)
}

func TestProject(t *testing.T) {
	items := []domain.ProductView{{Product: domain.Product{ID: "p1", Title: "Widget", Price: 3}}}

	got, err := project(items, []string{"title", "id"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"_id": "p1", "title": "Widget"}}, got)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
