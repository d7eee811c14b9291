package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// LedgerHandler serves the financial ledger and payment toggles.
type LedgerHandler struct {
	service *service.LedgerService
	loc     *time.Location
}

// NewLedgerHandler constructs handler.
func NewLedgerHandler(ledgerService *service.LedgerService, loc *time.Location) *LedgerHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerHandler{service: ledgerService, loc: loc}
}

// Load GET /api/ledger?range=&from=&to=&status=&agent_id=.
func (h *LedgerHandler) Load(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	r, err := service.ResolveRange(query, h.loc)
	if err != nil {
		return err
	}
	lq := service.LedgerQuery{Range: r}
	if raw := c.Query("status"); raw != "" {
		status := domain.PaymentStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid payment status", map[string]any{"status": raw})
		}
		lq.Filter.Status = &status
	}
	lq.Filter.AgentID = optionalQuery(c, "agent_id")

	view, err := h.service.Load(c.UserContext(), lq)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLedgerResponse(view.Range, view.Summary, view.Lines, view.Statements)})
}

// MarkPaid POST /api/ledger/tickets/:id/slots/:slot/paid.
func (h *LedgerHandler) MarkPaid(c *fiber.Ctx) error {
	return h.toggle(c, h.service.MarkPaid)
}

// UndoPayment DELETE /api/ledger/tickets/:id/slots/:slot/paid.
func (h *LedgerHandler) UndoPayment(c *fiber.Ctx) error {
	return h.toggle(c, h.service.UndoPayment)
}

type paymentToggle func(ctx context.Context, actor events.Actor, ticketID string, slot domain.ResponderSlot) error

func (h *LedgerHandler) toggle(c *fiber.Ctx, apply paymentToggle) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil || slot < 0 {
		return apperrors.NewValidationError("invalid responder slot", map[string]any{"slot": c.Params("slot")})
	}
	if err := apply(c.UserContext(), eventActor(principal), id, domain.ResponderSlot(slot)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
