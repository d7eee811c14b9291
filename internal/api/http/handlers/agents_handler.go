package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/geo"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// AgentsHandler manages field agents and the agent map.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// List GET /api/agents.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 100, 1, 500)
	if err != nil {
		return err
	}
	offset, err := parseQueryInt(c, "offset", 0, 0, 1<<30)
	if err != nil {
		return err
	}
	active, err := parseQueryBool(c, "active")
	if err != nil {
		return err
	}
	armed, err := parseQueryBool(c, "armed")
	if err != nil {
		return err
	}
	filter := repository.AgentFilter{Search: c.Query("q"), Active: active, Armed: armed, Limit: limit, Offset: offset}
	if raw := c.Query("tier"); raw != "" {
		tier := domain.AgentTier(raw)
		if !tier.Valid() {
			return apperrors.NewValidationError("invalid tier", map[string]any{"tier": raw})
		}
		filter.Tier = &tier
	}
	agents, err := h.service.ListAgents(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.NewAgentResponse(&agents[i]))
	}
	return c.JSON(dto.ListResponse[dto.AgentResponse]{Data: items, Limit: limit, Offset: offset})
}

// Get GET /api/agents/:id.
func (h *AgentsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	agent, err := h.service.GetAgent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// Create POST /api/agents.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	var req dto.AgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	agent, err := h.service.CreateAgent(c.UserContext(), req.ToDomain(""), req.Geocode)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// Update PUT /api/agents/:id.
func (h *AgentsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	agent, err := h.service.UpdateAgent(c.UserContext(), req.ToDomain(id), req.Geocode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentResponse(agent)})
}

// Delete DELETE /api/agents/:id.
func (h *AgentsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteAgent(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Nearby GET /api/agents/nearby?lat=&lon=.
func (h *AgentsHandler) Nearby(c *fiber.Ctx) error {
	lat, err := parseQueryFloat(c, "lat")
	if err != nil {
		return err
	}
	lon, err := parseQueryFloat(c, "lon")
	if err != nil {
		return err
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return apperrors.NewValidationError("coordinates out of range", map[string]any{"lat": lat, "lon": lon})
	}
	ranked, err := h.service.Nearby(c.UserContext(), geo.Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentDistances(ranked)})
}

// NearbyTicket GET /api/tickets/:id/nearby-agents.
func (h *AgentsHandler) NearbyTicket(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ranked, err := h.service.NearbyTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentDistances(ranked)})
}
