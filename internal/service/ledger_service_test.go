package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/finance"
	"github.com/spec-kit/dispatch-service/internal/reporting"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

func money(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

type ledgerFixture struct {
	store      *store
	svc        *LedgerService
	dispatcher *recordingDispatcher
	paidAt     time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	s := newStore()
	s.agents["alice"] = &domain.Agent{ID: "alice", Name: "Alice", Active: true}
	s.agents["bruno"] = &domain.Agent{ID: "bruno", Name: "Bruno", Active: true}

	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	fakeTickets{s}.put(domain.Ticket{
		ID:          "t1",
		Code:        "OC-AAAA0001",
		Status:      domain.TicketStatusCompleted,
		MainAgentID: strPtr("alice"),
		MainAgent:   s.agents["alice"],
		StartTime:   &start,
		CreatedAt:   start,
		MainCosts:   domain.Costs{Toll: money("10.00")},
		Support: []domain.SupportAssignment{{
			AgentID:  "bruno",
			Position: 1,
			Agent:    s.agents["bruno"],
			Costs:    domain.Costs{Food: money("5.50")},
		}},
	})

	d := &recordingDispatcher{}
	svc := NewLedgerService(LedgerDependencies{
		TicketRepo:  fakeTickets{s},
		PaymentRepo: fakePayments{s},
		HistoryRepo: fakeHistory{s},
		Dispatcher:  d,
	})
	paidAt := time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return paidAt }
	return &ledgerFixture{store: s, svc: svc, dispatcher: d, paidAt: paidAt}
}

func TestLedgerLoadSummarizesCompletedTickets(t *testing.T) {
	f := newLedgerFixture(t)

	view, err := f.svc.Load(context.Background(), LedgerQuery{})
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, "Main Agent", view.Lines[0].Role)
	assert.Equal(t, "Support 1", view.Lines[1].Role)
	assert.True(t, decimal.RequireFromString("15.50").Equal(view.Summary.PendingValue))
	assert.Equal(t, 2, view.Summary.PendingAgents)
	assert.True(t, view.Summary.PaidValue.IsZero())
	require.Len(t, view.Statements, 2)
}

func TestLedgerMarkPaidThenUndoRestoresPending(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	actor := operatorActor("op-1")

	require.NoError(t, f.svc.MarkPaid(ctx, actor, "t1", domain.MainSlot))

	view, err := f.svc.Load(ctx, LedgerQuery{})
	require.NoError(t, err)
	main, support := view.Lines[0], view.Lines[1]
	assert.Equal(t, domain.PaymentStatusPaid, main.Status)
	require.NotNil(t, main.PaidAt)
	assert.Equal(t, f.paidAt, *main.PaidAt)
	assert.Equal(t, domain.PaymentStatusPending, support.Status)
	assert.Nil(t, support.PaidAt)
	assert.True(t, decimal.RequireFromString("10").Equal(view.Summary.PaidValue))
	assert.True(t, decimal.RequireFromString("5.5").Equal(view.Summary.PendingValue))
	assert.Equal(t, 1, view.Summary.PaidAgents)

	require.NoError(t, f.svc.UndoPayment(ctx, actor, "t1", domain.MainSlot))

	view, err = f.svc.Load(ctx, LedgerQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, view.Lines[0].Status)
	assert.Nil(t, view.Lines[0].PaidAt)
	assert.True(t, decimal.RequireFromString("15.5").Equal(view.Summary.PendingValue))
	assert.True(t, view.Summary.PaidValue.IsZero())

	assert.Equal(t, []events.EventType{events.EventPaymentStatusChanged, events.EventPaymentStatusChanged}, f.dispatcher.types())
	require.Len(t, f.store.history, 2)
	assert.Equal(t, domain.ChangeTypePayment, f.store.history[0].ChangeType)
}

func TestLedgerMarkPaidSupportLeavesMainUntouched(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.MarkPaid(ctx, operatorActor("op-1"), "t1", 1))

	view, err := f.svc.Load(ctx, LedgerQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, view.Lines[0].Status)
	assert.Equal(t, domain.PaymentStatusPaid, view.Lines[1].Status)
}

func TestLedgerMarkPaidMissingSlot(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	err := f.svc.MarkPaid(ctx, operatorActor("op-1"), "t1", 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Contains(t, err.Error(), "not found or permission denied")

	err = f.svc.MarkPaid(ctx, operatorActor("op-1"), "missing", domain.MainSlot)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	err = f.svc.UndoPayment(ctx, operatorActor("op-1"), "t1", -1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Empty(t, f.dispatcher.types())
}

func TestLedgerPaymentsRequireCompletedTicket(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	for _, status := range []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusCancelled} {
		f.store.tickets["t1"].Status = status

		err := f.svc.MarkPaid(ctx, operatorActor("op-1"), "t1", domain.MainSlot)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), status)
		err = f.svc.MarkPaid(ctx, operatorActor("op-1"), "t1", 1)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), status)
	}
	assert.Empty(t, f.dispatcher.types())
	assert.Empty(t, f.store.history)

	f.store.tickets["t1"].Status = domain.TicketStatusCompleted
	view, err := f.svc.Load(ctx, LedgerQuery{})
	require.NoError(t, err)
	for _, line := range view.Lines {
		assert.Equal(t, domain.PaymentStatusPending, line.Status)
	}
}

func TestLedgerRangeUsesStartTimeAndKeepsPendingAllTime(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.MarkPaid(ctx, operatorActor("op-1"), "t1", domain.MainSlot))

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	view, err := f.svc.Load(ctx, LedgerQuery{Range: reporting.DateRange{Start: &from, End: &to}})
	require.NoError(t, err)

	assert.Empty(t, view.Lines)
	assert.True(t, view.Summary.PaidValue.IsZero())
	assert.True(t, decimal.RequireFromString("5.5").Equal(view.Summary.PendingValue))
}

func TestLedgerFilterNarrowsDisplayedLines(t *testing.T) {
	f := newLedgerFixture(t)
	agent := "bruno"

	view, err := f.svc.Load(context.Background(), LedgerQuery{Filter: finance.LineFilter{AgentID: &agent}})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Bruno", view.Lines[0].AgentName)
	assert.True(t, decimal.RequireFromString("15.5").Equal(view.Summary.PendingValue))
}
