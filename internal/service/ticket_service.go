package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/reporting"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// detailHistoryLimit caps the audit entries embedded in a ticket detail.
const detailHistoryLimit = 50

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	photos     repository.PhotoRepository
	history    repository.TicketHistoryRepository
	geocoder   AddressGeocoder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AgentRepo   repository.AgentRepository
	PhotoRepo   repository.PhotoRepository
	HistoryRepo repository.TicketHistoryRepository
	Geocoder    AddressGeocoder
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		agents:     deps.AgentRepo,
		photos:     deps.PhotoRepo,
		history:    deps.HistoryRepo,
		geocoder:   deps.Geocoder,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// SupportInput assigns one support agent. Nil Costs keeps what the agent
// already had on the ticket.
type SupportInput struct {
	AgentID string
	Costs   *domain.Costs
}

// TicketListFilter describes dispatch listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	ClientID   *string
	AgentID    *string
	OperatorID *string
	Search     string
	Range      reporting.DateRange
	Limit      int
	Offset     int
}

// TicketDetail is a ticket with its photos and audit trail.
type TicketDetail struct {
	Ticket  *domain.Ticket
	Photos  []domain.TicketPhoto
	History []domain.TicketHistory
}

// CreateTicket opens a ticket. The operator defaults to the caller.
func (s *TicketService) CreateTicket(ctx context.Context, actor events.Actor, ticket *domain.Ticket, support []SupportInput, geocode bool) (*domain.Ticket, error) {
	ticket.ServiceType = strings.TrimSpace(ticket.ServiceType)
	if err := requireText("service_type", ticket.ServiceType); err != nil {
		return nil, err
	}
	if err := validateCosts(ticket.MainCosts); err != nil {
		return nil, err
	}
	ticket.Code = generateTicketCode()
	ticket.Status = domain.TicketStatusOpen
	ticket.EndTime = nil
	if ticket.OperatorID == nil {
		ticket.OperatorID = actor.OperatorID
	}
	if geocode && (ticket.Latitude == nil || ticket.Longitude == nil) {
		ticket.Latitude, ticket.Longitude = locate(ctx, s.geocoder, s.logger, geo.Address{
			Street: ticket.Address,
			City:   ticket.City,
			State:  ticket.State,
		})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(support) > 0 {
		if _, err := s.SetSupport(ctx, actor, ticket.ID, support); err != nil {
			return nil, err
		}
	}

	publish(ctx, s.dispatcher, events.New(events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		Code:        ticket.Code,
		ServiceType: ticket.ServiceType,
		ClientID:    ticket.ClientID,
		MainAgentID: ticket.MainAgentID,
	}))
	return s.GetTicket(ctx, ticket.ID)
}

// GetTicket fetches a ticket with relations.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "ticket", id)
	}
	return ticket, nil
}

// GetTicketDetail fetches a ticket with photos and history.
func (s *TicketService) GetTicketDetail(ctx context.Context, id string) (*TicketDetail, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: ticket}
	if s.photos != nil {
		if detail.Photos, err = s.photos.ListByTicket(ctx, id); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if s.history != nil {
		filter := repository.HistoryFilter{NewestFirst: true, Limit: detailHistoryLimit}
		if detail.History, err = s.history.ListByTicket(ctx, id, filter); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return detail, nil
}

// ListTickets returns tickets newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses:    filter.Statuses,
		ClientID:    filter.ClientID,
		AgentID:     filter.AgentID,
		OperatorID:  filter.OperatorID,
		Search:      filter.Search,
		CreatedFrom: filter.Range.Start,
		CreatedTo:   filter.Range.LastInstant(),
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateTicket replaces editable details and main-agent costs. Status, code and
// payment state are preserved from the stored ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, update *domain.Ticket) (*domain.Ticket, error) {
	current, err := s.GetTicket(ctx, update.ID)
	if err != nil {
		return nil, err
	}
	update.ServiceType = strings.TrimSpace(update.ServiceType)
	if err := requireText("service_type", update.ServiceType); err != nil {
		return nil, err
	}
	if err := validateCosts(update.MainCosts); err != nil {
		return nil, err
	}
	if update.StartTime != nil && update.EndTime != nil && update.EndTime.Before(*update.StartTime) {
		return nil, apperrors.NewValidationError("end time precedes start time", nil)
	}

	update.Code = current.Code
	update.Status = current.Status
	update.MainPayment = current.MainPayment
	if derefString(update.MainAgentID) != derefString(current.MainAgentID) {
		update.MainPayment = domain.Payment{}
	}
	if update.OperatorID == nil {
		update.OperatorID = current.OperatorID
	}
	if err := s.tickets.Update(ctx, update); err != nil {
		return nil, mapRepoError(err, "ticket", update.ID)
	}
	return s.GetTicket(ctx, update.ID)
}

// ChangeStatus moves a ticket along the lifecycle. Starting work stamps the
// start time when missing; completion stamps the end time.
func (s *TicketService) ChangeStatus(ctx context.Context, actor events.Actor, id string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
	}
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.Status.CanTransitionTo(next) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}

	old := ticket.Status
	now := s.now().UTC()
	ticket.Status = next
	switch next {
	case domain.TicketStatusInProgress:
		if ticket.StartTime == nil {
			ticket.StartTime = &now
		}
	case domain.TicketStatusCompleted:
		if ticket.EndTime == nil {
			ticket.EndTime = &now
		}
	}
	if err := s.tickets.UpdateStatus(ctx, id, old, next, ticket.StartTime, ticket.EndTime); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		// Another request moved the ticket after it was read.
		latest, getErr := s.GetTicket(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewInvalidTransition(string(latest.Status), string(next))
	}

	s.record(ctx, actor, id, domain.ChangeTypeStatus,
		map[string]any{"status": old},
		map[string]any{"status": next})
	publish(ctx, s.dispatcher, events.New(events.EventTicketStatusChanged, id, actor, events.TicketStatusChangedPayload{
		OldStatus: old,
		NewStatus: next,
	}))
	return ticket, nil
}

// SetSupport replaces the ordered support list. Agents already on the ticket
// keep their costs and payment state unless new costs are given.
func (s *TicketService) SetSupport(ctx context.Context, actor events.Actor, id string, support []SupportInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusCancelled {
		return nil, apperrors.NewConflict("cancelled tickets cannot be staffed", map[string]any{"ticket_id": id})
	}

	existing := make(map[string]domain.SupportAssignment, len(ticket.Support))
	for _, a := range ticket.Support {
		existing[a.AgentID] = a
	}

	seen := make(map[string]struct{}, len(support))
	assignments := make([]domain.SupportAssignment, 0, len(support))
	agentIDs := make([]string, 0, len(support))
	for _, in := range support {
		agentID := strings.TrimSpace(in.AgentID)
		if agentID == "" {
			return nil, apperrors.NewValidationError("support agent id is required", nil)
		}
		if ticket.MainAgentID != nil && *ticket.MainAgentID == agentID {
			return nil, apperrors.NewValidationError("main agent cannot also be support", map[string]any{"agent_id": agentID})
		}
		if _, dup := seen[agentID]; dup {
			return nil, apperrors.NewValidationError("support agent listed twice", map[string]any{"agent_id": agentID})
		}
		seen[agentID] = struct{}{}
		if s.agents != nil {
			if _, err := s.agents.GetByID(ctx, agentID); err != nil {
				return nil, mapRepoError(err, "agent", agentID)
			}
		}

		assignment := domain.SupportAssignment{TicketID: id, AgentID: agentID}
		if prev, ok := existing[agentID]; ok {
			assignment.Costs = prev.Costs
			assignment.Payment = prev.Payment
		}
		if in.Costs != nil {
			if err := validateCosts(*in.Costs); err != nil {
				return nil, err
			}
			assignment.Costs = *in.Costs
		}
		assignments = append(assignments, assignment)
		agentIDs = append(agentIDs, agentID)
	}

	if err := s.tickets.ReplaceSupport(ctx, id, assignments); err != nil {
		return nil, mapRepoError(err, "ticket", id)
	}

	oldIDs := make([]string, 0, len(ticket.Support))
	for _, a := range ticket.Support {
		oldIDs = append(oldIDs, a.AgentID)
	}
	s.record(ctx, actor, id, domain.ChangeTypeSupport,
		map[string]any{"agent_ids": oldIDs},
		map[string]any{"agent_ids": agentIDs})
	publish(ctx, s.dispatcher, events.New(events.EventTicketSupportChanged, id, actor, events.TicketSupportChangedPayload{
		AgentIDs: agentIDs,
	}))
	return s.GetTicket(ctx, id)
}

// AddPhoto attaches photo metadata to a ticket.
func (s *TicketService) AddPhoto(ctx context.Context, photo *domain.TicketPhoto) (*domain.TicketPhoto, error) {
	photo.URL = strings.TrimSpace(photo.URL)
	if err := requireText("url", photo.URL); err != nil {
		return nil, err
	}
	if _, err := s.GetTicket(ctx, photo.TicketID); err != nil {
		return nil, err
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, apperrors.MapError(err)
	}
	return photo, nil
}

// ListPhotos lists a ticket's photos, oldest first.
func (s *TicketService) ListPhotos(ctx context.Context, ticketID string) ([]domain.TicketPhoto, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	photos, err := s.photos.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return photos, nil
}

// ListHistory returns a ticket's audit trail, newest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, changeTypes []domain.TicketChangeType, limit int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	for _, changeType := range changeTypes {
		if !changeType.Valid() {
			return nil, apperrors.NewValidationError("invalid change type", map[string]any{"change_type": changeType})
		}
	}
	if s.history == nil {
		return nil, nil
	}
	history, err := s.history.ListByTicket(ctx, ticketID, repository.HistoryFilter{
		ChangeTypes: changeTypes,
		NewestFirst: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// DeleteTicket hard-deletes a ticket. Attached photos block the delete.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	return mapRepoError(s.tickets.Delete(ctx, id), "ticket", id)
}

func (s *TicketService) record(ctx context.Context, actor events.Actor, ticketID string, change domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		OperatorID: actor.OperatorID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket history write failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func validateCosts(costs domain.Costs) error {
	fields := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"toll_cost", costs.Toll},
		{"food_cost", costs.Food},
		{"other_cost", costs.Other},
	}
	for _, f := range fields {
		if f.value.Valid && f.value.Decimal.IsNegative() {
			return apperrors.NewValidationError("costs must not be negative", map[string]any{"field": f.name})
		}
	}
	return nil
}
