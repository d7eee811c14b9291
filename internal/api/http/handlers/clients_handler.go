package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
)

// ClientsHandler manages clients, their vehicles and postal-code autofill.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// ListClients GET /api/clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 50, 1, 500)
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
	clients, err := h.service.ListClients(c.UserContext(), repository.ClientFilter{
		Search: c.Query("q"),
		PlanID: optionalQuery(c, "plan_id"),
		Active: active,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, dto.NewClientResponse(&clients[i]))
	}
	return c.JSON(dto.ListResponse[dto.ClientResponse]{Data: items, Limit: limit, Offset: offset})
}

// GetClient GET /api/clients/:id.
func (h *ClientsHandler) GetClient(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	client, err := h.service.GetClient(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// CreateClient POST /api/clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := h.service.CreateClient(c.UserContext(), req.ToDomain(""), req.Geocode)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// UpdateClient PUT /api/clients/:id.
func (h *ClientsHandler) UpdateClient(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	client, err := h.service.UpdateClient(c.UserContext(), req.ToDomain(id), req.Geocode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewClientResponse(client)})
}

// DeleteClient DELETE /api/clients/:id.
func (h *ClientsHandler) DeleteClient(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteClient(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LookupPostalCode GET /api/postal-codes/:code.
func (h *ClientsHandler) LookupPostalCode(c *fiber.Ctx) error {
	addr, err := h.service.LookupPostalCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": addr})
}

// ListVehicles GET /api/vehicles.
func (h *ClientsHandler) ListVehicles(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 50, 1, 500)
	if err != nil {
		return err
	}
	offset, err := parseQueryInt(c, "offset", 0, 0, 1<<30)
	if err != nil {
		return err
	}
	vehicles, err := h.service.ListVehicles(c.UserContext(), repository.VehicleFilter{
		ClientID: optionalQuery(c, "client_id"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, dto.NewVehicleResponse(&vehicles[i]))
	}
	return c.JSON(dto.ListResponse[dto.VehicleResponse]{Data: items, Limit: limit, Offset: offset})
}

// GetVehicle GET /api/vehicles/:id.
func (h *ClientsHandler) GetVehicle(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	vehicle, err := h.service.GetVehicle(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVehicleResponse(vehicle)})
}

// CreateVehicle POST /api/vehicles.
func (h *ClientsHandler) CreateVehicle(c *fiber.Ctx) error {
	var req dto.VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	vehicle, err := h.service.CreateVehicle(c.UserContext(), req.ToDomain(""))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewVehicleResponse(vehicle)})
}

// UpdateVehicle PUT /api/vehicles/:id.
func (h *ClientsHandler) UpdateVehicle(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.VehicleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	vehicle, err := h.service.UpdateVehicle(c.UserContext(), req.ToDomain(id))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVehicleResponse(vehicle)})
}

// DeleteVehicle DELETE /api/vehicles/:id.
func (h *ClientsHandler) DeleteVehicle(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteVehicle(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
