package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: io.Discard})
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestListProductsAppliesQueryFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"p1","name":"Ceramic Mug","description":"","price":10,"image":"","category":"kitchen"},
		{"id":"p2","name":"Desk Lamp","description":"","price":24.5,"image":"","category":"office"}
	]`), 0o644))
	svc, err := products.NewService(products.ServiceParams{Store: products.NewFileStore(path)})
	require.NoError(t, err)

	rec := serve(ListProducts(svc, testLogger()), httptest.NewRequest(http.MethodGet, "/api/products?search=MUG", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []products.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].ID)

	rec = serve(ListProducts(svc, testLogger()), httptest.NewRequest(http.MethodGet, "/api/products?category=office", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/products/zzz", nil), map[string]string{"id": "zzz"})
	rec = serve(GetProduct(svc, testLogger()), req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec)["error"])
}

func TestWishlistHandlers(t *testing.T) {
	svc, err := wishlist.NewService(wishlist.NewFileStore(filepath.Join(t.TempDir(), "wishlist.json")))
	require.NoError(t, err)
	logg := testLogger()

	add := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/wishlist/u1", strings.NewReader(body))
		return serve(WishlistAdd(svc, logg), withParams(req, map[string]string{"userId": "u1"}))
	}

	rec := add(`{"productId":"p1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true, "message": "Added to wishlist"}, decode(t, rec))
	require.Equal(t, http.StatusOK, add(`{"productId":"p1"}`).Code)

	rec = add(`{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Product ID is required", decode(t, rec)["error"])

	req := withParams(httptest.NewRequest(http.MethodGet, "/api/wishlist/u1", nil), map[string]string{"userId": "u1"})
	rec = serve(WishlistList(svc, logg), req)
	assert.JSONEq(t, `["p1"]`, rec.Body.String())

	req = withParams(httptest.NewRequest(http.MethodDelete, "/api/wishlist/u1/p1", nil), map[string]string{"userId": "u1", "productId": "p1"})
	rec = serve(WishlistRemove(svc, logg), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Removed from wishlist", decode(t, rec)["message"])
}

type stubAuthService struct {
	registered  []auth.RegisterInput
	registerErr error
	loginUser   *users.Public
	loginErr    error
}

func (s *stubAuthService) Register(_ context.Context, input auth.RegisterInput) (*users.Public, error) {
	s.registered = append(s.registered, input)
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &users.Public{ID: "id-1", Username: input.Username}, nil
}

func (s *stubAuthService) Login(context.Context, auth.LoginInput) (*users.Public, error) {
	return s.loginUser, s.loginErr
}

func TestRegister(t *testing.T) {
	stub := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(`{"username":"ann","password":"pw","email":"a@x.io"}`))
	rec := serve(Register(stub, testLogger()), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully", decode(t, rec)["message"])
	assert.Equal(t, []auth.RegisterInput{{Username: "ann", Password: "pw", Email: "a@x.io"}}, stub.registered)

	stub.registerErr = pkgerrors.New(pkgerrors.CodeConflict, "User already exists")
	req = httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(`{"username":"ann","password":"pw","email":"a@x.io"}`))
	rec = serve(Register(stub, testLogger()), req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decode(t, rec)["error"])
}

func TestLogin(t *testing.T) {
	stub := &stubAuthService{loginUser: &users.Public{ID: "id-1", Username: "ann"}}
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"username":"ann","password":"pw"}`))
	rec := serve(Login(stub, testLogger()), req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, map[string]any{"id": "id-1", "username": "ann"}, body["user"])

	stub.loginUser, stub.loginErr = nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")
	req = httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"username":"ann","password":"nope"}`))
	rec = serve(Login(stub, testLogger()), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["error"])
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := serve(HealthLive(cfg), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))

	healthy := Dependencies{"db": pingerFunc(func(context.Context) error { return nil }), "redis": nil}
	rec = serve(HealthReady(cfg, healthy, testLogger()), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	down := Dependencies{"redis": pingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") })}
	rec = serve(HealthReady(cfg, down, testLogger()), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", decode(t, rec)["code"])
}
