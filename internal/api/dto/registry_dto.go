package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/geo"
)

// ClientRequest creates or updates a client.
type ClientRequest struct {
	Name       string   `json:"name" validate:"required,max=160"`
	Document   string   `json:"document" validate:"max=32"`
	Phone      string   `json:"phone" validate:"max=32"`
	Email      string   `json:"email" validate:"omitempty,email"`
	PostalCode string   `json:"postal_code" validate:"max=10"`
	Address    string   `json:"address"`
	District   string   `json:"district"`
	City       string   `json:"city"`
	State      string   `json:"state" validate:"omitempty,len=2"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	PlanID     *string  `json:"plan_id" validate:"omitempty,uuid"`
	Active     *bool    `json:"active"`
	Geocode    bool     `json:"geocode"`
}

// ToDomain builds the client entity.
func (r ClientRequest) ToDomain(id string) *domain.Client {
	return &domain.Client{
		ID:         id,
		Name:       r.Name,
		Document:   r.Document,
		Phone:      r.Phone,
		Email:      r.Email,
		PostalCode: r.PostalCode,
		Address:    r.Address,
		District:   r.District,
		City:       r.City,
		State:      r.State,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		PlanID:     r.PlanID,
		Active:     r.Active == nil || *r.Active,
	}
}

// ClientResponse representation.
type ClientResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Document   string    `json:"document"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	PostalCode string    `json:"postal_code"`
	Address    string    `json:"address"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	PlanID     *string   `json:"plan_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewClientResponse maps a client.
func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:         c.ID,
		Name:       c.Name,
		Document:   c.Document,
		Phone:      c.Phone,
		Email:      c.Email,
		PostalCode: c.PostalCode,
		Address:    c.Address,
		District:   c.District,
		City:       c.City,
		State:      c.State,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		PlanID:     c.PlanID,
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// VehicleRequest creates or updates a vehicle.
type VehicleRequest struct {
	ClientID string `json:"client_id" validate:"required,uuid"`
	Plate    string `json:"plate" validate:"required,max=10"`
	Brand    string `json:"brand" validate:"max=60"`
	Model    string `json:"model" validate:"max=60"`
	Color    string `json:"color" validate:"max=30"`
	Year     *int   `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

// ToDomain builds the vehicle entity.
func (r VehicleRequest) ToDomain(id string) *domain.Vehicle {
	return &domain.Vehicle{
		ID:       id,
		ClientID: r.ClientID,
		Plate:    r.Plate,
		Brand:    r.Brand,
		Model:    r.Model,
		Color:    r.Color,
		Year:     r.Year,
	}
}

// VehicleResponse representation.
type VehicleResponse struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Plate     string    `json:"plate"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Color     string    `json:"color"`
	Year      *int      `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVehicleResponse maps a vehicle.
func NewVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:        v.ID,
		ClientID:  v.ClientID,
		Plate:     v.Plate,
		Brand:     v.Brand,
		Model:     v.Model,
		Color:     v.Color,
		Year:      v.Year,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

// PlanRequest creates or updates a plan.
type PlanRequest struct {
	Name         string          `json:"name" validate:"required,max=120"`
	Description  string          `json:"description"`
	MonthlyPrice decimal.Decimal `json:"monthly_price" validate:"gte=0"`
	Active       *bool           `json:"active"`
}

// ToDomain builds the plan entity.
func (r PlanRequest) ToDomain(id string) *domain.Plan {
	return &domain.Plan{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		MonthlyPrice: r.MonthlyPrice,
		Active:       r.Active == nil || *r.Active,
	}
}

// PlanResponse representation.
type PlanResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	MonthlyPrice string    `json:"monthly_price"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewPlanResponse maps a plan.
func NewPlanResponse(p *domain.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		MonthlyPrice: Money(p.MonthlyPrice),
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PayoutPayload carries an agent's bank details.
type PayoutPayload struct {
	PixKey      string `json:"pix_key" validate:"max=140"`
	BankName    string `json:"bank_name" validate:"max=80"`
	BankAgency  string `json:"bank_agency" validate:"max=20"`
	BankAccount string `json:"bank_account" validate:"max=30"`
	AccountType string `json:"account_type" validate:"omitempty,oneof=checking savings"`
}

func (p PayoutPayload) toDomain() domain.PayoutDetails {
	return domain.PayoutDetails{
		PixKey:      p.PixKey,
		BankName:    p.BankName,
		BankAgency:  p.BankAgency,
		BankAccount: p.BankAccount,
		AccountType: p.AccountType,
	}
}

// NewPayoutPayload maps payout details.
func NewPayoutPayload(p domain.PayoutDetails) PayoutPayload {
	return PayoutPayload{
		PixKey:      p.PixKey,
		BankName:    p.BankName,
		BankAgency:  p.BankAgency,
		BankAccount: p.BankAccount,
		AccountType: p.AccountType,
	}
}

// AgentRequest creates or updates an agent.
type AgentRequest struct {
	Name      string           `json:"name" validate:"required,max=160"`
	Phone     string           `json:"phone" validate:"max=32"`
	Email     string           `json:"email" validate:"omitempty,email"`
	Document  string           `json:"document" validate:"max=32"`
	Armed     bool             `json:"armed"`
	Tier      domain.AgentTier `json:"tier" validate:"omitempty,oneof=poor good excellent"`
	Active    *bool            `json:"active"`
	Payout    PayoutPayload    `json:"payout"`
	Address   string           `json:"address"`
	City      string           `json:"city"`
	State     string           `json:"state" validate:"omitempty,len=2"`
	Latitude  *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64         `json:"longitude" validate:"omitempty,longitude"`
	Geocode   bool             `json:"geocode"`
}

// ToDomain builds the agent entity.
func (r AgentRequest) ToDomain(id string) *domain.Agent {
	return &domain.Agent{
		ID:        id,
		Name:      r.Name,
		Phone:     r.Phone,
		Email:     r.Email,
		Document:  r.Document,
		Armed:     r.Armed,
		Tier:      r.Tier,
		Active:    r.Active == nil || *r.Active,
		Payout:    r.Payout.toDomain(),
		Address:   r.Address,
		City:      r.City,
		State:     r.State,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// AgentResponse representation.
type AgentResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Email     string           `json:"email"`
	Document  string           `json:"document"`
	Armed     bool             `json:"armed"`
	Tier      domain.AgentTier `json:"tier"`
	Active    bool             `json:"active"`
	Payout    PayoutPayload    `json:"payout"`
	Address   string           `json:"address"`
	City      string           `json:"city"`
	State     string           `json:"state"`
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewAgentResponse maps an agent.
func NewAgentResponse(a *domain.Agent) AgentResponse {
	return AgentResponse{
		ID:        a.ID,
		Name:      a.Name,
		Phone:     a.Phone,
		Email:     a.Email,
		Document:  a.Document,
		Armed:     a.Armed,
		Tier:      a.Tier,
		Active:    a.Active,
		Payout:    NewPayoutPayload(a.Payout),
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AgentDistanceResponse is one row of the agent map.
type AgentDistanceResponse struct {
	Agent      AgentResponse `json:"agent"`
	DistanceKm *float64      `json:"distance_km"`
}

// NewAgentDistances maps a distance-sorted agent list.
func NewAgentDistances(ranked []geo.AgentDistance) []AgentDistanceResponse {
	out := make([]AgentDistanceResponse, 0, len(ranked))
	for i := range ranked {
		out = append(out, AgentDistanceResponse{
			Agent:      NewAgentResponse(&ranked[i].Agent),
			DistanceKm: ranked[i].DistanceKm,
		})
	}
	return out
}
