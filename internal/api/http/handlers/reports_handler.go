package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/reporting"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// ReportsHandler serves the dashboard and performance screens.
type ReportsHandler struct {
	dashboard   *service.DashboardService
	performance *service.PerformanceService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(dashboard *service.DashboardService, performance *service.PerformanceService) *ReportsHandler {
	return &ReportsHandler{dashboard: dashboard, performance: performance}
}

// Dashboard GET /api/reports/dashboard?range=week|month|year|all|custom&from=&to=.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	view, err := h.dashboard.Load(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Range: dto.NewRangeResponse(view.Range),
		Counts: dto.CountsResponse{
			Clients:       view.Counts.Clients,
			Agents:        view.Counts.Agents,
			Vehicles:      view.Counts.Vehicles,
			ActiveTickets: view.Counts.ActiveTickets,
		},
		TotalTickets: view.TotalTickets,
		Trend:        dto.NewTrend(view.Trend),
		Distribution: dto.NewDistribution(view.Distribution),
		TopAgents:    dto.NewAgentRanks(view.TopAgents),
	}})
}

// Performance GET /api/reports/performance.
func (h *ReportsHandler) Performance(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	view, err := h.performance.Load(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PerformanceResponse{
		Range:     dto.NewRangeResponse(view.Range),
		Agents:    dto.NewAgentRanks(view.Agents),
		Operators: dto.NewOperatorRanks(view.Operators),
	}})
}

func parseReportQuery(c *fiber.Ctx) (service.ReportQuery, error) {
	preset, err := reporting.ParsePreset(c.Query("range"))
	if err != nil {
		return service.ReportQuery{}, apperrors.NewValidationError(err.Error(), map[string]any{"field": "range"})
	}
	from, err := parseQueryDate(c, "from")
	if err != nil {
		return service.ReportQuery{}, err
	}
	to, err := parseQueryDate(c, "to")
	if err != nil {
		return service.ReportQuery{}, err
	}
	return service.ReportQuery{Preset: preset, From: from, To: to}, nil
}
