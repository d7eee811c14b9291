package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/finance"
	"github.com/spec-kit/dispatch-service/internal/reporting"
)

// NewRangeResponse maps a resolved window.
func NewRangeResponse(r reporting.DateRange) RangeResponse {
	return RangeResponse{Start: r.Start, End: r.End}
}

// PaymentLineResponse is one ledger row.
type PaymentLineResponse struct {
	TicketID   string               `json:"ticket_id"`
	TicketCode string               `json:"ticket_code"`
	ClientName string               `json:"client_name"`
	StartTime  *time.Time           `json:"start_time"`
	Slot       int                  `json:"slot"`
	Role       string               `json:"role"`
	AgentID    string               `json:"agent_id"`
	AgentName  string               `json:"agent_name"`
	Armed      bool                 `json:"armed"`
	Toll       string               `json:"toll_cost"`
	Food       string               `json:"food_cost"`
	Other      string               `json:"other_cost"`
	Total      string               `json:"total"`
	Status     domain.PaymentStatus `json:"status"`
	PaidAt     *time.Time           `json:"paid_at"`
}

// NewPaymentLines maps ledger rows.
func NewPaymentLines(lines []domain.PaymentLine) []PaymentLineResponse {
	out := make([]PaymentLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, PaymentLineResponse{
			TicketID:   l.TicketID,
			TicketCode: l.TicketCode,
			ClientName: l.ClientName,
			StartTime:  l.StartTime,
			Slot:       int(l.Slot),
			Role:       l.Role,
			AgentID:    l.AgentID,
			AgentName:  l.AgentName,
			Armed:      l.Armed,
			Toll:       Money(l.Toll),
			Food:       Money(l.Food),
			Other:      Money(l.Other),
			Total:      Money(l.Total),
			Status:     l.Status,
			PaidAt:     l.PaidAt,
		})
	}
	return out
}

// SummaryResponse holds the ledger's headline cards.
type SummaryResponse struct {
	PendingValue  string `json:"pending_value"`
	PendingAgents int    `json:"pending_agents"`
	PaidValue     string `json:"paid_value"`
	PaidAgents    int    `json:"paid_agents"`
}

// StatementResponse is one agent's settlement sheet.
type StatementResponse struct {
	AgentID   string                `json:"agent_id"`
	AgentName string                `json:"agent_name"`
	Armed     bool                  `json:"armed"`
	Payout    PayoutPayload         `json:"payout"`
	Pending   string                `json:"pending"`
	Paid      string                `json:"paid"`
	Lines     []PaymentLineResponse `json:"lines"`
}

// LedgerResponse is the financial screen.
type LedgerResponse struct {
	Range      RangeResponse         `json:"range"`
	Summary    SummaryResponse       `json:"summary"`
	Lines      []PaymentLineResponse `json:"lines"`
	Statements []StatementResponse   `json:"statements"`
}

// NewLedgerResponse maps the ledger view.
func NewLedgerResponse(r reporting.DateRange, summary finance.Summary, lines []domain.PaymentLine, statements []finance.AgentStatement) LedgerResponse {
	resp := LedgerResponse{
		Range: NewRangeResponse(r),
		Summary: SummaryResponse{
			PendingValue:  Money(summary.PendingValue),
			PendingAgents: summary.PendingAgents,
			PaidValue:     Money(summary.PaidValue),
			PaidAgents:    summary.PaidAgents,
		},
		Lines:      NewPaymentLines(lines),
		Statements: make([]StatementResponse, 0, len(statements)),
	}
	for _, s := range statements {
		resp.Statements = append(resp.Statements, StatementResponse{
			AgentID:   s.AgentID,
			AgentName: s.AgentName,
			Armed:     s.Armed,
			Payout:    NewPayoutPayload(s.Payout),
			Pending:   Money(s.Pending),
			Paid:      Money(s.Paid),
			Lines:     NewPaymentLines(s.Lines),
		})
	}
	return resp
}

// TrendPointResponse is one non-empty day.
type TrendPointResponse struct {
	Day   time.Time `json:"day"`
	Label string    `json:"label"`
	Count int       `json:"count"`
}

// AgentRankResponse is one ranking row.
type AgentRankResponse struct {
	AgentID        string  `json:"agent_id"`
	AgentName      string  `json:"agent_name"`
	Completed      int     `json:"completed"`
	AverageMinutes float64 `json:"average_minutes"`
}

// OperatorRankResponse is one operator ranking row. General tickets have no id.
type OperatorRankResponse struct {
	OperatorID string `json:"operator_id,omitempty"`
	Name       string `json:"name"`
	Tickets    int    `json:"tickets"`
}

// CountsResponse are the dashboard cards.
type CountsResponse struct {
	Clients       int64 `json:"clients"`
	Agents        int64 `json:"agents"`
	Vehicles      int64 `json:"vehicles"`
	ActiveTickets int64 `json:"active_tickets"`
}

// DistributionResponse is the status pie.
type DistributionResponse struct {
	Completed int `json:"completed"`
	Open      int `json:"open"`
	Cancelled int `json:"cancelled"`
}

// DashboardResponse is the dashboard screen.
type DashboardResponse struct {
	Range        RangeResponse        `json:"range"`
	Counts       CountsResponse       `json:"counts"`
	TotalTickets int                  `json:"total_tickets"`
	Trend        []TrendPointResponse `json:"trend"`
	Distribution DistributionResponse `json:"distribution"`
	TopAgents    []AgentRankResponse  `json:"top_agents"`
}

// PerformanceResponse is the performance screen.
type PerformanceResponse struct {
	Range     RangeResponse          `json:"range"`
	Agents    []AgentRankResponse    `json:"agents"`
	Operators []OperatorRankResponse `json:"operators"`
}

// NewTrend maps trend points.
func NewTrend(points []reporting.TrendPoint) []TrendPointResponse {
	out := make([]TrendPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, TrendPointResponse{Day: p.Day, Label: p.Label, Count: p.Count})
	}
	return out
}

// NewAgentRanks maps agent rankings.
func NewAgentRanks(ranks []reporting.AgentRank) []AgentRankResponse {
	out := make([]AgentRankResponse, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, AgentRankResponse{
			AgentID:        r.AgentID,
			AgentName:      r.AgentName,
			Completed:      r.Completed,
			AverageMinutes: r.AverageMinutes,
		})
	}
	return out
}

// NewOperatorRanks maps operator rankings.
func NewOperatorRanks(ranks []reporting.OperatorRank) []OperatorRankResponse {
	out := make([]OperatorRankResponse, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, OperatorRankResponse{OperatorID: r.OperatorID, Name: r.Name, Tickets: r.Tickets})
	}
	return out
}

// NewDistribution maps the status distribution.
func NewDistribution(d reporting.StatusDistribution) DistributionResponse {
	return DistributionResponse{Completed: d.Completed, Open: d.Open, Cancelled: d.Cancelled}
}
