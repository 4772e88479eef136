package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/MorseWayne/admin_panel/internal/api"
	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/limiter"
	"github.com/MorseWayne/admin_panel/internal/repo"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type testApp struct {
	handler http.Handler
	users   service.UserService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "admin-panel", Env: "test", Version: "test", RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{Secret: "router-test", TTL: time.Hour},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
	}
}

func newTestApp(t *testing.T, authLimiter limiter.Limiter, health func(context.Context) error) *testApp {
	t.Helper()
	cfg := testConfig()
	lg := zap.NewNop()
	store := repo.NewMemoryStore()

	hasher := service.NewPasswordHasher(config.SecurityConfig{BcryptCost: bcrypt.MinCost})
	tokens := service.NewJWTService(cfg.JWT, cfg.App.Name, lg)
	users := service.NewUserService(store.Users(), hasher, tokens, lg)

	deps := &Dependencies{
		UserHandler:     api.NewUserHandler(users, lg),
		ProductHandler:  api.NewProductHandler(service.NewProductService(store.Products(), store.Categories(), lg), lg),
		CategoryHandler: api.NewCategoryHandler(service.NewCategoryService(store.Categories(), lg), lg),
		JWTService:      tokens,
		AuthLimiter:     authLimiter,
		HealthCheck:     health,
	}

	ctx := context.Background()
	_, err := users.EnsureAdmin(ctx, "Admin", "admin@example.com", "admin-password")
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.CreateUserRequest{Name: "Plain", Email: "plain@example.com", Password: "plain-password"})
	require.NoError(t, err)

	return &testApp{handler: New().Setup(cfg, deps, lg), users: users}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func (a *testApp) login(t *testing.T, email, password string) domain.LoginResponse {
	t.Helper()
	rr, env := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out domain.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestLoginThenMe(t *testing.T) {
	app := newTestApp(t, nil, nil)

	login := app.login(t, "admin@example.com", "admin-password")
	assert.Equal(t, domain.UserRoleAdmin, login.User.Role)

	rr, env := app.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rr.Header().Get("X-Request-ID"))

	var me domain.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, login.User.ID, me.ID)
	assert.Equal(t, login.User.Email, me.Email)
	assert.Equal(t, login.User.Role, me.Role)
}

func TestAuthGate(t *testing.T) {
	app := newTestApp(t, nil, nil)
	admin := app.login(t, "admin@example.com", "admin-password")
	plain := app.login(t, "plain@example.com", "plain-password")

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   int
	}{
		{"no token", http.MethodGet, "/api/users", "", http.StatusUnauthorized, resp.CodeUnauthorized},
		{"garbage token", http.MethodGet, "/api/products", "garbage", http.StatusUnauthorized, resp.CodeUnauthorized},
		{"user on admin route", http.MethodGet, "/api/users", plain.Token, http.StatusForbidden, resp.CodeForbidden},
		{"user creates category", http.MethodPost, "/api/categories", plain.Token, http.StatusForbidden, resp.CodeForbidden},
		{"user reads products", http.MethodGet, "/api/products", plain.Token, http.StatusOK, resp.CodeOK},
		{"user reads own profile", http.MethodGet, "/api/users/me", plain.Token, http.StatusOK, resp.CodeOK},
		{"admin lists users", http.MethodGet, "/api/users", admin.Token, http.StatusOK, resp.CodeOK},
		{"unknown route", http.MethodGet, "/api/nope", admin.Token, http.StatusNotFound, resp.CodeNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr, env := app.do(t, tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
			assert.Equal(t, tc.code, env.Code)
		})
	}
}

func TestAdminCatalogFlow(t *testing.T) {
	app := newTestApp(t, nil, nil)
	admin := app.login(t, "admin@example.com", "admin-password")

	rr, env := app.do(t, http.MethodPost, "/api/categories", admin.Token, map[string]string{"name": "Books"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var books domain.Category
	require.NoError(t, json.Unmarshal(env.Data, &books))

	rr, env = app.do(t, http.MethodPost, "/api/products", admin.Token,
		map[string]any{"name": "Go Book", "price": 30, "category_id": books.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))

	path := "/api/products/" + strconv.FormatInt(product.ID, 10)
	rr, _ = app.do(t, http.MethodPut, path, admin.Token, map[string]any{"price": 25})
	require.Equal(t, http.StatusOK, rr.Code)

	rr, env = app.do(t, http.MethodGet, path, admin.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, 25.0, product.Price)

	rr, _ = app.do(t, http.MethodDelete, path, admin.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = app.do(t, http.MethodDelete, path, admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthRateLimit(t *testing.T) {
	lim := limiter.NewMemoryFixedWindowLimiter(limiter.Config{Rate: 10, Window: time.Minute, KeyPrefix: "auth"})
	app := newTestApp(t, lim, nil)

	body := map[string]string{"email": "admin@example.com", "password": "wrong-password"}
	for i := 1; i <= 10; i++ {
		rr, _ := app.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "attempt %d", i)
	}

	rr, env := app.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, resp.CodeTooMany, env.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// 登录与注册分别计数
	rr, _ = app.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "New", "email": "new@example.com", "password": "password123"})
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, nil, nil)
	rr, env := app.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, string(env.Data))

	down := newTestApp(t, nil, func(context.Context) error { return errors.New("db down") })
	rr, _ = down.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
