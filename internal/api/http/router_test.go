package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
)

type memoryOperators struct {
	mu   sync.Mutex
	byID map[string]domain.Operator
}

func (m *memoryOperators) Create(_ context.Context, o *domain.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[o.ID] = *o
	return nil
}

func (m *memoryOperators) Update(_ context.Context, o *domain.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[o.ID] = *o
	return nil
}

func (m *memoryOperators) GetByID(_ context.Context, id string) (*domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &o, nil
}

func (m *memoryOperators) GetByEmail(_ context.Context, email string) (*domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Email == email {
			return &o, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryOperators) List(_ context.Context, _ repository.OperatorFilter) ([]domain.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Operator, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	return out, nil
}

func (m *memoryOperators) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

const testPassword = "s3cret-pass"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	operators := &memoryOperators{byID: map[string]domain.Operator{
		"9f1d2c3b-0000-4000-8000-000000000001": {ID: "9f1d2c3b-0000-4000-8000-000000000001", Name: "Ana", Email: "ana@example.com", PasswordHash: string(hash), Role: domain.OperatorRoleAdmin, Active: true},
		"9f1d2c3b-0000-4000-8000-000000000002": {ID: "9f1d2c3b-0000-4000-8000-000000000002", Name: "Olga", Email: "olga@example.com", PasswordHash: string(hash), Role: domain.OperatorRoleOperator, Active: true},
	}}

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}, operators)
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("dispatch-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Operators:      handlers.NewOperatorsHandler(service.NewOperatorService(operators, bcrypt.MinCost)),
		Clients:        handlers.NewClientsHandler(nil),
		Plans:          handlers.NewPlansHandler(nil),
		Agents:         handlers.NewAgentsHandler(nil),
		Tickets:        handlers.NewTicketsHandler(nil, nil),
		Ledger:         handlers.NewLedgerHandler(nil, nil),
		Reports:        handlers.NewReportsHandler(nil, nil),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), operators),
		Gatherer:       registry,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	return data["access_token"].(string)
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestLoginValidatesPayload(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["password"])

	status, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	token := login(t, app, "olga@example.com")
	status, body = doJSON(t, app, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Olga", body["data"].(map[string]any)["name"])
}

func TestOperatorRoutesAreAdminOnly(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/operators", login(t, app, "olga@example.com"), "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, "/api/operators", login(t, app, "ana@example.com"), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)
}

func TestPaymentTogglesAreAdminOnly(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "olga@example.com")

	status, body := doJSON(t, app, http.MethodPost, "/api/ledger/tickets/9f1d2c3b-0000-4000-8000-0000000000aa/slots/0/paid", token, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
}

func TestDeleteSelfIsForbidden(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "ana@example.com")

	status, body := doJSON(t, app, http.MethodDelete, "/api/operators/9f1d2c3b-0000-4000-8000-000000000001", token, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = doJSON(t, app, http.MethodGet, "/api/operators/not-a-uuid", token, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestMetricsAndLiveness(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	assigned := resp.Header.Get(observability.RequestIDHeader)
	_, err = uuid.Parse(assigned)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(observability.RequestIDHeader, "6a0c1a52-47a4-4c5f-9d0b-0d2f7a3e9c11")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "6a0c1a52-47a4-4c5f-9d0b-0d2f7a3e9c11", resp.Header.Get(observability.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(observability.RequestIDHeader, "not-a-uuid")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(observability.RequestIDHeader))
}
