package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AgentService manages field agents.
type AgentService struct {
	agents   repository.AgentRepository
	tickets  repository.TicketRepository
	geocoder AddressGeocoder
	logger   *zap.Logger
}

// NewAgentService constructs the service.
func NewAgentService(agents repository.AgentRepository, tickets repository.TicketRepository, geocoder AddressGeocoder, logger *zap.Logger) *AgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{agents: agents, tickets: tickets, geocoder: geocoder, logger: logger}
}

// CreateAgent stores an agent, geocoding when asked.
func (s *AgentService) CreateAgent(ctx context.Context, agent *domain.Agent, geocode bool) (*domain.Agent, error) {
	if err := s.prepare(ctx, agent, geocode); err != nil {
		return nil, err
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// UpdateAgent replaces an agent's fields.
func (s *AgentService) UpdateAgent(ctx context.Context, agent *domain.Agent, geocode bool) (*domain.Agent, error) {
	if err := s.prepare(ctx, agent, geocode); err != nil {
		return nil, err
	}
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, mapRepoError(err, "agent", agent.ID)
	}
	return agent, nil
}

func (s *AgentService) prepare(ctx context.Context, agent *domain.Agent, geocode bool) error {
	agent.Name = strings.TrimSpace(agent.Name)
	if err := requireText("name", agent.Name); err != nil {
		return err
	}
	if agent.Tier == "" {
		agent.Tier = domain.AgentTierGood
	}
	if !agent.Tier.Valid() {
		return apperrors.NewValidationError("invalid tier", map[string]any{"tier": agent.Tier})
	}
	if geocode && !agent.HasLocation() {
		agent.Latitude, agent.Longitude = locate(ctx, s.geocoder, s.logger, geo.Address{
			Street: agent.Address,
			City:   agent.City,
			State:  agent.State,
		})
	}
	return nil
}

// GetAgent fetches an agent.
func (s *AgentService) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "agent", id)
	}
	return agent, nil
}

// ListAgents lists agents.
func (s *AgentService) ListAgents(ctx context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	agents, err := s.agents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// DeleteAgent removes an agent. Tickets referencing the agent block the delete.
func (s *AgentService) DeleteAgent(ctx context.Context, id string) error {
	return mapRepoError(s.agents.Delete(ctx, id), "agent", id)
}

// Nearby lists active agents ordered by distance from origin.
func (s *AgentService) Nearby(ctx context.Context, origin geo.Coordinates) ([]geo.AgentDistance, error) {
	active := true
	agents, err := s.agents.List(ctx, repository.AgentFilter{Active: &active, Limit: -1})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return geo.SortByDistance(origin, agents), nil
}

// NearbyTicket ranks active agents by distance from a geocoded ticket.
func (s *AgentService) NearbyTicket(ctx context.Context, ticketID string) ([]geo.AgentDistance, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", ticketID)
	}
	if ticket.Latitude == nil || ticket.Longitude == nil {
		return nil, apperrors.NewValidationError("ticket has no coordinates", map[string]any{"ticket_id": ticketID})
	}
	return s.Nearby(ctx, geo.Coordinates{Latitude: *ticket.Latitude, Longitude: *ticket.Longitude})
}
