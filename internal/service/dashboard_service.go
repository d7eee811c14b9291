package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/dispatch-service/internal/reporting"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// ReportQuery selects the reporting window.
type ReportQuery struct {
	Preset reporting.Preset
	From   *time.Time
	To     *time.Time
}

// EntityCounts are the dashboard's headline cards.
type EntityCounts struct {
	Clients       int64
	Agents        int64
	Vehicles      int64
	ActiveTickets int64
}

// DashboardView is the dashboard screen's data.
type DashboardView struct {
	Range        reporting.DateRange
	Counts       EntityCounts
	TotalTickets int
	Trend        []reporting.TrendPoint
	Distribution reporting.StatusDistribution
	TopAgents    []reporting.AgentRank
}

// ReportDependencies bundles the repositories read by dashboards.
type ReportDependencies struct {
	TicketRepo  repository.TicketRepository
	ClientRepo  repository.ClientRepository
	AgentRepo   repository.AgentRepository
	VehicleRepo repository.VehicleRepository
	Location    *time.Location
}

// DashboardService computes the dashboard view model.
type DashboardService struct {
	tickets  repository.TicketRepository
	clients  repository.ClientRepository
	agents   repository.AgentRepository
	vehicles repository.VehicleRepository
	loc      *time.Location
	now      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps ReportDependencies) *DashboardService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		tickets:  deps.TicketRepo,
		clients:  deps.ClientRepo,
		agents:   deps.AgentRepo,
		vehicles: deps.VehicleRepo,
		loc:      loc,
		now:      time.Now,
	}
}

const dashboardTopAgents = 5

// Load fetches the count cards concurrently, then every ticket, then aggregates.
func (s *DashboardService) Load(ctx context.Context, query ReportQuery) (*DashboardView, error) {
	r, err := resolveRange(query, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}

	var counts EntityCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts.Clients, err = s.clients.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Agents, err = s.agents.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Vehicles, err = s.vehicles.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts.ActiveTickets, err = s.tickets.CountActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{Limit: -1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	filtered := reporting.FilterByCreated(tickets, r)

	top := reporting.RankAgents(filtered)
	if len(top) > dashboardTopAgents {
		top = top[:dashboardTopAgents]
	}
	return &DashboardView{
		Range:        r,
		Counts:       counts,
		TotalTickets: len(filtered),
		Trend:        reporting.TrendByDay(filtered, s.loc),
		Distribution: reporting.DistributionOf(filtered),
		TopAgents:    top,
	}, nil
}

// PerformanceView is the performance screen's data.
type PerformanceView struct {
	Range     reporting.DateRange
	Agents    []reporting.AgentRank
	Operators []reporting.OperatorRank
}

// PerformanceService ranks agents and operators.
type PerformanceService struct {
	tickets repository.TicketRepository
	loc     *time.Location
	now     func() time.Time
}

// NewPerformanceService constructs the service.
func NewPerformanceService(deps ReportDependencies) *PerformanceService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &PerformanceService{tickets: deps.TicketRepo, loc: loc, now: time.Now}
}

// Load ranks every agent and operator over the selected window.
func (s *PerformanceService) Load(ctx context.Context, query ReportQuery) (*PerformanceView, error) {
	r, err := resolveRange(query, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{Limit: -1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	filtered := reporting.FilterByCreated(tickets, r)
	return &PerformanceView{
		Range:     r,
		Agents:    reporting.RankAgents(filtered),
		Operators: reporting.RankOperators(filtered),
	}, nil
}

// ResolveRange is exposed for handlers that scope listings by preset.
func ResolveRange(query ReportQuery, loc *time.Location) (reporting.DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	return resolveRange(query, time.Now().In(loc))
}

func resolveRange(query ReportQuery, now time.Time) (reporting.DateRange, error) {
	preset := query.Preset
	if preset == "" {
		preset = reporting.PresetMonth
	}
	r, err := reporting.Resolve(preset, query.From, query.To, now)
	if err != nil {
		return reporting.DateRange{}, apperrors.NewValidationError(err.Error(), map[string]any{"range": string(preset)})
	}
	return r, nil
}
