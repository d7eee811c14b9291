package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Operators      *handlers.OperatorsHandler
	Clients        *handlers.ClientsHandler
	Plans          *handlers.PlansHandler
	Agents         *handlers.AgentsHandler
	Tickets        *handlers.TicketsHandler
	Ledger         *handlers.LedgerHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Every /api route except login needs a
// bearer token; admin-only routes are marked with auth.RequireAdmin.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.OperatorRoleAdmin, domain.OperatorRoleOperator))
	admin := auth.RequireAdmin()

	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password", cfg.Auth.ChangePassword)
	protected.Post("/auth/logout", cfg.Auth.Logout)

	operators := protected.Group("/operators", admin)
	operators.Get("/", cfg.Operators.List)
	operators.Post("/", cfg.Operators.Create)
	operators.Get("/:id", cfg.Operators.Get)
	operators.Put("/:id", cfg.Operators.Update)
	operators.Delete("/:id", cfg.Operators.Delete)

	protected.Get("/postal-codes/:code", cfg.Clients.LookupPostalCode)

	clients := protected.Group("/clients")
	clients.Get("/", cfg.Clients.ListClients)
	clients.Post("/", cfg.Clients.CreateClient)
	clients.Get("/:id", cfg.Clients.GetClient)
	clients.Put("/:id", cfg.Clients.UpdateClient)
	clients.Delete("/:id", admin, cfg.Clients.DeleteClient)

	vehicles := protected.Group("/vehicles")
	vehicles.Get("/", cfg.Clients.ListVehicles)
	vehicles.Post("/", cfg.Clients.CreateVehicle)
	vehicles.Get("/:id", cfg.Clients.GetVehicle)
	vehicles.Put("/:id", cfg.Clients.UpdateVehicle)
	vehicles.Delete("/:id", admin, cfg.Clients.DeleteVehicle)

	plans := protected.Group("/plans")
	plans.Get("/", cfg.Plans.List)
	plans.Get("/:id", cfg.Plans.Get)
	plans.Post("/", admin, cfg.Plans.Create)
	plans.Put("/:id", admin, cfg.Plans.Update)
	plans.Delete("/:id", admin, cfg.Plans.Delete)

	agents := protected.Group("/agents")
	agents.Get("/", cfg.Agents.List)
	agents.Get("/nearby", cfg.Agents.Nearby)
	agents.Post("/", cfg.Agents.Create)
	agents.Get("/:id", cfg.Agents.Get)
	agents.Put("/:id", cfg.Agents.Update)
	agents.Delete("/:id", admin, cfg.Agents.Delete)

	tickets := protected.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", admin, cfg.Tickets.Delete)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Put("/:id/support", cfg.Tickets.SetSupport)
	tickets.Get("/:id/photos", cfg.Tickets.ListPhotos)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/photos", cfg.Tickets.AddPhoto)
	tickets.Get("/:id/nearby-agents", cfg.Agents.NearbyTicket)

	protected.Get("/ledger", cfg.Ledger.Load)
	protected.Post("/ledger/tickets/:id/slots/:slot/paid", admin, cfg.Ledger.MarkPaid)
	protected.Delete("/ledger/tickets/:id/slots/:slot/paid", admin, cfg.Ledger.UndoPayment)

	protected.Get("/reports/dashboard", cfg.Reports.Dashboard)
	protected.Get("/reports/performance", cfg.Reports.Performance)
}
