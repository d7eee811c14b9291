package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.PaymentStatus) *domain.PaymentStatus { return &s }

func completedTicket(id, mainAgent string, costs domain.Costs, support ...domain.SupportAssignment) domain.Ticket {
	start := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	return domain.Ticket{
		ID:          id,
		Code:        "OC-" + id,
		Status:      domain.TicketStatusCompleted,
		StartTime:   &start,
		MainAgentID: strPtr(mainAgent),
		MainAgent:   &domain.Agent{ID: mainAgent, Name: "agent " + mainAgent},
		MainCosts:   costs,
		Client:      &domain.Client{Name: "ACME"},
		Support:     support,
	}
}

func TestExpandPaymentLinesMainAndSupport(t *testing.T) {
	ticket := completedTicket("t1", "a1", domain.Costs{Toll: dec("10.50")},
		domain.SupportAssignment{AgentID: "a2", Position: 1, Agent: &domain.Agent{Name: "Bob", Armed: true}, Costs: domain.Costs{Food: dec("25.00"), Other: dec("5.00")}},
		domain.SupportAssignment{AgentID: "a3", Position: 2, Costs: domain.Costs{}},
	)

	lines := ExpandPaymentLines([]domain.Ticket{ticket})
	require.Len(t, lines, 3)

	assert.Equal(t, "Main Agent", lines[0].Role)
	assert.Equal(t, domain.MainSlot, lines[0].Slot)
	assert.Equal(t, "ACME", lines[0].ClientName)
	assert.True(t, decimal.RequireFromString("10.50").Equal(lines[0].Total))

	assert.Equal(t, "Support 1", lines[1].Role)
	assert.Equal(t, domain.ResponderSlot(1), lines[1].Slot)
	assert.Equal(t, "Bob", lines[1].AgentName)
	assert.True(t, lines[1].Armed)
	assert.True(t, decimal.RequireFromString("30").Equal(lines[1].Total))

	assert.Equal(t, "Support 2", lines[2].Role)
	assert.Empty(t, lines[2].AgentName)
	assert.True(t, lines[2].Total.IsZero())
	for _, line := range lines {
		assert.Equal(t, domain.PaymentStatusPending, line.Status)
	}
}

func TestExpandPaymentLinesSkipsMissingMainAgent(t *testing.T) {
	ticket := domain.Ticket{
		ID:      "t1",
		Support: []domain.SupportAssignment{{AgentID: "a2", Position: 1}},
	}
	lines := ExpandPaymentLines([]domain.Ticket{ticket})
	require.Len(t, lines, 1)
	assert.Equal(t, "Support 1", lines[0].Role)
	assert.Empty(t, lines[0].ClientName)
}

func TestExpandPaymentLinesTotalsMatchTickets(t *testing.T) {
	tickets := []domain.Ticket{
		completedTicket("t1", "a1", domain.Costs{Toll: dec("1.10"), Food: dec("2.20")},
			domain.SupportAssignment{AgentID: "a2", Position: 1, Costs: domain.Costs{Other: dec("3.30")}}),
		completedTicket("t2", "a2", domain.Costs{Other: dec("0.01")}),
	}

	want := decimal.Zero
	for _, ticket := range tickets {
		want = want.Add(ticket.MainCosts.Total())
		for _, s := range ticket.Support {
			want = want.Add(s.Costs.Total())
		}
	}
	assert.True(t, want.Equal(TotalOf(ExpandPaymentLines(tickets))))
	assert.Equal(t, "6.61", want.StringFixed(2))
}

func TestSummarizeExample(t *testing.T) {
	ticket := completedTicket("t1", "a1", domain.Costs{Toll: dec("10.50"), Food: dec("0"), Other: dec("0")},
		domain.SupportAssignment{AgentID: "a2", Position: 1, Costs: domain.Costs{Toll: dec("0"), Food: dec("25.00"), Other: dec("5.00")}},
	)
	lines := ExpandPaymentLines([]domain.Ticket{ticket})

	summary := Summarize(lines, lines)
	assert.Equal(t, "40.50", summary.PendingValue.StringFixed(2))
	assert.Equal(t, 2, summary.PendingAgents)
	assert.True(t, summary.PaidValue.IsZero())
	assert.Equal(t, 0, summary.PaidAgents)
}

func TestSummarizeDistinctAgentsAndAsymmetry(t *testing.T) {
	paid := domain.Payment{Status: statusPtr(domain.PaymentStatusPaid)}
	tickets := []domain.Ticket{
		completedTicket("t1", "a1", domain.Costs{Toll: dec("10")},
			domain.SupportAssignment{AgentID: "a2", Position: 1, Costs: domain.Costs{Toll: dec("5")}}),
		completedTicket("t2", "a2", domain.Costs{Toll: dec("7")}),
	}
	tickets[1].MainPayment = paid
	all := ExpandPaymentLines(tickets)

	summary := Summarize(all, nil)
	assert.Equal(t, "15.00", summary.PendingValue.StringFixed(2))
	assert.Equal(t, 2, summary.PendingAgents)
	assert.True(t, summary.PaidValue.IsZero(), "paid is computed over the range only")

	summary = Summarize(all, all)
	assert.Equal(t, "7.00", summary.PaidValue.StringFixed(2))
	assert.Equal(t, 1, summary.PaidAgents)
}

func TestFilterByStart(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	lines := []domain.PaymentLine{{TicketID: "jan", StartTime: &jan}, {TicketID: "feb", StartTime: &feb}, {TicketID: "none"}}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)
	got := FilterByStart(lines, &from, &to)
	require.Len(t, got, 1)
	assert.Equal(t, "jan", got[0].TicketID)

	assert.Len(t, FilterByStart(lines, nil, nil), 3)
}

func TestLineFilter(t *testing.T) {
	lines := []domain.PaymentLine{
		{AgentID: "a1", Status: domain.PaymentStatusPaid},
		{AgentID: "a1", Status: domain.PaymentStatusPending},
		{AgentID: "a2", Status: domain.PaymentStatusPending},
	}
	pending := domain.PaymentStatusPending
	got := LineFilter{Status: &pending, AgentID: strPtr("a1")}.Apply(lines)
	require.Len(t, got, 1)
	assert.Equal(t, domain.PaymentStatusPending, got[0].Status)
}

func TestStatements(t *testing.T) {
	lines := []domain.PaymentLine{
		{AgentID: "a1", AgentName: "Ana", Total: decimal.NewFromInt(10), Status: domain.PaymentStatusPending, Payout: domain.PayoutDetails{PixKey: "ana@pix"}},
		{AgentID: "a2", AgentName: "Bob", Total: decimal.NewFromInt(3), Status: domain.PaymentStatusPaid},
		{AgentID: "a1", AgentName: "Ana", Total: decimal.NewFromInt(4), Status: domain.PaymentStatusPaid},
	}
	stmts := Statements(lines)
	require.Len(t, stmts, 2)
	assert.Equal(t, "a1", stmts[0].AgentID)
	assert.Equal(t, "ana@pix", stmts[0].Payout.PixKey)
	assert.Len(t, stmts[0].Lines, 2)
	assert.True(t, stmts[0].Pending.Equal(decimal.NewFromInt(10)))
	assert.True(t, stmts[0].Paid.Equal(decimal.NewFromInt(4)))
	assert.True(t, stmts[1].Paid.Equal(decimal.NewFromInt(3)))
	assert.True(t, stmts[1].Pending.IsZero())
}
