package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// TicketsHandler manages dispatch tickets.
type TicketsHandler struct {
	service *service.TicketService
	loc     *time.Location
}

// NewTicketsHandler constructs handler. loc anchors range presets.
func NewTicketsHandler(ticketService *service.TicketService, loc *time.Location) *TicketsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketsHandler{service: ticketService, loc: loc}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), eventActor(principal), req.ToDomain(""), supportInputs(req.Support), req.Geocode)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 20, 1, 200)
	if err != nil {
		return err
	}
	offset, err := parseQueryInt(c, "offset", 0, 0, 1<<30)
	if err != nil {
		return err
	}
	filter := service.TicketListFilter{
		ClientID:   optionalQuery(c, "client_id"),
		AgentID:    optionalQuery(c, "agent_id"),
		OperatorID: optionalQuery(c, "operator_id"),
		Search:     c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return apperrors.NewValidationError("invalid status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if c.Query("range") != "" {
		query, err := parseReportQuery(c)
		if err != nil {
			return err
		}
		if filter.Range, err = service.ResolveRange(query, h.loc); err != nil {
			return err
		}
	}

	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(dto.ListResponse[dto.TicketResponse]{Data: items, Limit: limit, Offset: offset})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicketDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail.Ticket, detail.Photos, detail.History)})
}

// Update PUT /api/tickets/:id. Support agents are managed through /support.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), req.ToDomain(id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ChangeStatus POST /api/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), eventActor(principal), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SetSupport PUT /api/tickets/:id/support.
func (h *TicketsHandler) SetSupport(c *fiber.Ctx) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.SetSupportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.SetSupport(c.UserContext(), eventActor(principal), id, supportInputs(req.Agents))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddPhoto POST /api/tickets/:id/photos.
func (h *TicketsHandler) AddPhoto(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.PhotoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	photo, err := h.service.AddPhoto(c.UserContext(), &domain.TicketPhoto{TicketID: id, URL: req.URL, Caption: req.Caption})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPhotoResponse(photo)})
}

// ListPhotos GET /api/tickets/:id/photos.
func (h *TicketsHandler) ListPhotos(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	photos, err := h.service.ListPhotos(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		items = append(items, dto.NewPhotoResponse(&photos[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListHistory GET /api/tickets/:id/history?change_type=a,b&limit=n.
// Entries come newest first.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	limit, err := parseQueryInt(c, "limit", 50, 1, 500)
	if err != nil {
		return err
	}
	var changeTypes []domain.TicketChangeType
	for _, raw := range strings.Split(c.Query("change_type"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			changeTypes = append(changeTypes, domain.TicketChangeType(raw))
		}
	}
	history, err := h.service.ListHistory(c.UserContext(), id, changeTypes, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(history)})
}

// Delete DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func supportInputs(reqs []dto.SupportRequest) []service.SupportInput {
	out := make([]service.SupportInput, 0, len(reqs))
	for _, r := range reqs {
		in := service.SupportInput{AgentID: r.AgentID}
		if r.Costs != nil {
			costs := r.Costs.ToDomain()
			in.Costs = &costs
		}
		out = append(out, in)
	}
	return out
}

func eventActor(p *auth.Principal) events.Actor {
	return events.Actor{OperatorID: p.OperatorID(), Role: p.Role}
}
