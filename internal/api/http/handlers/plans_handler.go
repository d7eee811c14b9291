package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// PlansHandler manages service plans.
type PlansHandler struct {
	service *service.PlanService
}

// NewPlansHandler constructs handler.
func NewPlansHandler(planService *service.PlanService) *PlansHandler {
	return &PlansHandler{service: planService}
}

// List GET /api/plans.
func (h *PlansHandler) List(c *fiber.Ctx) error {
	plans, err := h.service.ListPlans(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return err
	}
	items := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		items = append(items, dto.NewPlanResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/plans/:id.
func (h *PlansHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	plan, err := h.service.GetPlan(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPlanResponse(plan)})
}

// Create POST /api/plans.
func (h *PlansHandler) Create(c *fiber.Ctx) error {
	var req dto.PlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	plan, err := h.service.CreatePlan(c.UserContext(), req.ToDomain(""))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPlanResponse(plan)})
}

// Update PUT /api/plans/:id.
func (h *PlansHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.PlanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	plan, err := h.service.UpdatePlan(c.UserContext(), req.ToDomain(id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPlanResponse(plan)})
}

// Delete DELETE /api/plans/:id.
func (h *PlansHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeletePlan(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
