package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// OperatorsHandler manages dispatch staff accounts. Admin only.
type OperatorsHandler struct {
	service *service.OperatorService
}

// NewOperatorsHandler constructs handler.
func NewOperatorsHandler(operatorService *service.OperatorService) *OperatorsHandler {
	return &OperatorsHandler{service: operatorService}
}

// List GET /api/operators.
func (h *OperatorsHandler) List(c *fiber.Ctx) error {
	active, err := parseQueryBool(c, "active")
	if err != nil {
		return err
	}
	filter := repository.OperatorFilter{Active: active}
	if role := domain.OperatorRole(c.Query("role")); role != "" {
		filter.Role = &role
	}
	operators, err := h.service.ListOperators(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.OperatorResponse, 0, len(operators))
	for i := range operators {
		items = append(items, dto.NewOperatorResponse(&operators[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/operators/:id.
func (h *OperatorsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	operator, err := h.service.GetOperator(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOperatorResponse(operator)})
}

// Create POST /api/operators.
func (h *OperatorsHandler) Create(c *fiber.Ctx) error {
	var req dto.OperatorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	operator, err := h.service.CreateOperator(c.UserContext(), &domain.Operator{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Active: req.Active == nil || *req.Active,
	}, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewOperatorResponse(operator)})
}

// Update PUT /api/operators/:id.
func (h *OperatorsHandler) Update(c *fiber.Ctx) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.OperatorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	operator, err := h.service.UpdateOperator(c.UserContext(), principal.Operator, &domain.Operator{
		ID:     id,
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Active: req.Active == nil || *req.Active,
	}, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOperatorResponse(operator)})
}

// Delete DELETE /api/operators/:id.
func (h *OperatorsHandler) Delete(c *fiber.Ctx) error {
	principal, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteOperator(c.UserContext(), principal.Operator, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
