package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/finance"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/reporting"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// LedgerService backs the financial ledger and settlement screens. Every load
// refetches completed tickets and recomputes from scratch.
type LedgerService struct {
	tickets    repository.TicketRepository
	payments   repository.PaymentRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// LedgerDependencies bundles collaborators for the ledger.
type LedgerDependencies struct {
	TicketRepo  repository.TicketRepository
	PaymentRepo repository.PaymentRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		tickets:    deps.TicketRepo,
		payments:   deps.PaymentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// LedgerQuery selects the window and the displayed rows.
type LedgerQuery struct {
	Range  reporting.DateRange
	Filter finance.LineFilter
}

// LedgerView is the ledger screen's data.
type LedgerView struct {
	Range      reporting.DateRange
	Summary    finance.Summary
	Lines      []domain.PaymentLine
	Statements []finance.AgentStatement
}

// Load fetches every completed ticket, expands it into payment lines and totals
// them. Lines are placed in the range by their ticket's start time.
func (s *LedgerService) Load(ctx context.Context, query LedgerQuery) (*LedgerView, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusCompleted},
		Limit:    -1,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	all := finance.ExpandPaymentLines(tickets)
	inRange := finance.FilterByStart(all, query.Range.Start, query.Range.LastInstant())
	shown := query.Filter.Apply(inRange)

	return &LedgerView{
		Range:      query.Range,
		Summary:    finance.Summarize(all, inRange),
		Lines:      shown,
		Statements: finance.Statements(shown),
	}, nil
}

// MarkPaid settles one responder slot and stamps the paid-at time.
func (s *LedgerService) MarkPaid(ctx context.Context, actor events.Actor, ticketID string, slot domain.ResponderSlot) error {
	now := s.now().UTC()
	return s.setStatus(ctx, actor, ticketID, slot, domain.PaymentStatusPaid, &now)
}

// UndoPayment returns one responder slot to pending and clears paid-at.
func (s *LedgerService) UndoPayment(ctx context.Context, actor events.Actor, ticketID string, slot domain.ResponderSlot) error {
	return s.setStatus(ctx, actor, ticketID, slot, domain.PaymentStatusPending, nil)
}

func (s *LedgerService) setStatus(ctx context.Context, actor events.Actor, ticketID string, slot domain.ResponderSlot, status domain.PaymentStatus, paidAt *time.Time) error {
	if slot < domain.MainSlot {
		return apperrors.NewValidationError("invalid responder slot", map[string]any{"slot": int(slot)})
	}
	if err := s.payments.SetPaymentStatus(ctx, ticketID, slot, status, paidAt); err != nil {
		return mapRepoError(err, "payment line", ticketID)
	}

	s.metrics.RecordPaymentChange(string(status))
	if s.history != nil {
		entry := &domain.TicketHistory{
			TicketID:   ticketID,
			OperatorID: actor.OperatorID,
			ChangeType: domain.ChangeTypePayment,
			OldValue:   map[string]any{"slot": int(slot)},
			NewValue:   map[string]any{"slot": int(slot), "status": status, "paid_at": paidAt},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			s.logger.Warn("payment history write failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	}
	publish(ctx, s.dispatcher, events.New(events.EventPaymentStatusChanged, ticketID, actor, events.PaymentStatusChangedPayload{
		Slot:      slot,
		NewStatus: status,
		PaidAt:    paidAt,
	}))
	return nil
}
