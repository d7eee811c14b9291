package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyReportsFailingDependency(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	app := fiber.New()
	app.Get("/ready", NewHealthHandler("svc", "v1", ok, down).Ready)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	app = fiber.New()
	app.Get("/ready", NewHealthHandler("svc", "v1", ok, ok).Ready)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// bindBody runs bindAndValidate inside a throwaway fiber handler.
func bindBody(t *testing.T, body string, dest any) error {
	t.Helper()
	var bindErr error
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		bindErr = bindAndValidate(c, dest)
		return c.SendStatus(fiber.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	_, err := app.Test(req, -1)
	require.NoError(t, err)
	return bindErr
}

func detailsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	require.Equal(t, apperrors.CodeValidation, de.Code)
	return de.Details
}

func TestBindAndValidateTicketRequest(t *testing.T) {
	var req dto.TicketRequest
	err := bindBody(t, `{
		"service_type": "escort",
		"state": "SP",
		"costs": {"toll_cost": "12.50", "food_cost": 3},
		"support": [{"agent_id": "6a0c1a52-47a4-4c5f-9d0b-0d2f7a3e9c11"}]
	}`, &req)
	require.NoError(t, err)
	costs := req.ToDomain("").MainCosts
	assert.True(t, costs.Toll.Valid)
	assert.Equal(t, "15.50", dto.Money(costs.Total()))
	assert.False(t, costs.Other.Valid)
	require.Len(t, req.Support, 1)
	assert.Nil(t, req.Support[0].Costs)
}

func TestBindAndValidateReportsFieldPaths(t *testing.T) {
	var req dto.TicketRequest
	err := bindBody(t, `{
		"state": "Sao Paulo",
		"costs": {"toll_cost": -1},
		"support": [{"agent_id": "bruno"}]
	}`, &req)
	details := detailsOf(t, err)

	assert.Equal(t, "is required", details["service_type"])
	assert.Equal(t, "must have length 2", details["state"])
	assert.Equal(t, "must be greater than or equal to 0", details["costs.toll_cost"])
	assert.Equal(t, "must be a valid id", details["support[0].agent_id"])
}

func TestBindAndValidateRejectsMalformedJSON(t *testing.T) {
	var req dto.StatusRequest
	err := bindBody(t, `{"status":`, &req)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	err = bindBody(t, `{"status":"archived"}`, &req)
	details := detailsOf(t, err)
	assert.Contains(t, details["status"], "must be one of")
}

func TestBindAndValidatePlanPrice(t *testing.T) {
	var req dto.PlanRequest
	err := bindBody(t, `{"name":"Gold","monthly_price":"-10"}`, &req)
	details := detailsOf(t, err)
	assert.Contains(t, details, "monthly_price")

	req = dto.PlanRequest{}
	require.NoError(t, bindBody(t, `{"name":"Gold","monthly_price":"199.9"}`, &req))
	assert.Equal(t, "199.90", dto.Money(req.MonthlyPrice))
}

func TestParseReportQuery(t *testing.T) {
	app := fiber.New()
	var (
		gotErr  error
		gotFrom string
	)
	app.Get("/", func(c *fiber.Ctx) error {
		q, err := parseReportQuery(c)
		gotErr = err
		if q.From != nil {
			gotFrom = q.From.Format("2006-01-02")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/?range=custom&from=2026-03-01&to=2026-03-31", nil), -1)
	require.NoError(t, err)
	require.NoError(t, gotErr)
	assert.Equal(t, "2026-03-01", gotFrom)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/?range=decade", nil), -1)
	require.NoError(t, err)
	assert.True(t, apperrors.IsCode(gotErr, apperrors.CodeValidation))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/?range=custom&from=03/01/2026", nil), -1)
	require.NoError(t, err)
	assert.True(t, apperrors.IsCode(gotErr, apperrors.CodeValidation))
}
