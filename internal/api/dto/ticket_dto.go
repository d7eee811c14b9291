package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// CostsPayload carries one responder's expenses. Omitted components stay unset.
type CostsPayload struct {
	Toll  *decimal.Decimal `json:"toll_cost" validate:"omitempty,gte=0"`
	Food  *decimal.Decimal `json:"food_cost" validate:"omitempty,gte=0"`
	Other *decimal.Decimal `json:"other_cost" validate:"omitempty,gte=0"`
}

// ToDomain converts the payload.
func (p CostsPayload) ToDomain() domain.Costs {
	return domain.Costs{
		Toll:  ToNullDecimal(p.Toll),
		Food:  ToNullDecimal(p.Food),
		Other: ToNullDecimal(p.Other),
	}
}

// SupportRequest assigns one support agent. Costs are kept when omitted.
type SupportRequest struct {
	AgentID string        `json:"agent_id" validate:"required,uuid"`
	Costs   *CostsPayload `json:"costs"`
}

// TicketRequest creates or updates a ticket.
type TicketRequest struct {
	ServiceType string           `json:"service_type" validate:"required,max=80"`
	Description string           `json:"description"`
	ClientID    *string          `json:"client_id" validate:"omitempty,uuid"`
	VehicleID   *string          `json:"vehicle_id" validate:"omitempty,uuid"`
	PlanID      *string          `json:"plan_id" validate:"omitempty,uuid"`
	OperatorID  *string          `json:"operator_id" validate:"omitempty,uuid"`
	MainAgentID *string          `json:"main_agent_id" validate:"omitempty,uuid"`
	Address     string           `json:"address"`
	City        string           `json:"city"`
	State       string           `json:"state" validate:"omitempty,len=2"`
	Latitude    *float64         `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64         `json:"longitude" validate:"omitempty,longitude"`
	StartTime   *time.Time       `json:"start_time"`
	EndTime     *time.Time       `json:"end_time"`
	Costs       CostsPayload     `json:"costs"`
	Support     []SupportRequest `json:"support" validate:"omitempty,dive"`
	Geocode     bool             `json:"geocode"`
}

// ToDomain builds the ticket entity.
func (r TicketRequest) ToDomain(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		ServiceType: r.ServiceType,
		Description: r.Description,
		ClientID:    r.ClientID,
		VehicleID:   r.VehicleID,
		PlanID:      r.PlanID,
		OperatorID:  r.OperatorID,
		MainAgentID: r.MainAgentID,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		MainCosts:   r.Costs.ToDomain(),
	}
}

// SetSupportRequest replaces the ordered support list.
type SetSupportRequest struct {
	Agents []SupportRequest `json:"agents" validate:"dive"`
}

// StatusRequest moves a ticket along its lifecycle.
type StatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required,oneof=open in_progress completed cancelled"`
}

// PhotoRequest attaches a photo by URL.
type PhotoRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"max=280"`
}

// CostsResponse renders costs as fixed-point strings.
type CostsResponse struct {
	Toll  *string `json:"toll_cost"`
	Food  *string `json:"food_cost"`
	Other *string `json:"other_cost"`
	Total string  `json:"total"`
}

// NewCostsResponse maps costs.
func NewCostsResponse(c domain.Costs) CostsResponse {
	return CostsResponse{
		Toll:  NullMoney(c.Toll),
		Food:  NullMoney(c.Food),
		Other: NullMoney(c.Other),
		Total: Money(c.Total()),
	}
}

// PaymentResponse is one slot's settlement state.
type PaymentResponse struct {
	Status domain.PaymentStatus `json:"status"`
	PaidAt *time.Time           `json:"paid_at"`
}

func newPaymentResponse(p domain.Payment) PaymentResponse {
	return PaymentResponse{Status: p.EffectiveStatus(), PaidAt: p.PaidAt}
}

// RefResponse is a joined entity reference.
type RefResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SupportResponse is one support assignment.
type SupportResponse struct {
	Position int             `json:"position"`
	Agent    RefResponse     `json:"agent"`
	Costs    CostsResponse   `json:"costs"`
	Payment  PaymentResponse `json:"payment"`
}

// TicketResponse representation.
type TicketResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code"`
	Status      domain.TicketStatus `json:"status"`
	ServiceType string              `json:"service_type"`
	Description string              `json:"description"`
	ClientID    *string             `json:"client_id"`
	VehicleID   *string             `json:"vehicle_id"`
	PlanID      *string             `json:"plan_id"`
	Client      *RefResponse        `json:"client"`
	Operator    *RefResponse        `json:"operator"`
	MainAgent   *RefResponse        `json:"main_agent"`
	Address     string              `json:"address"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Latitude    *float64            `json:"latitude"`
	Longitude   *float64            `json:"longitude"`
	StartTime   *time.Time          `json:"start_time"`
	EndTime     *time.Time          `json:"end_time"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Costs       CostsResponse       `json:"costs"`
	Payment     PaymentResponse     `json:"payment"`
	Support     []SupportResponse   `json:"support"`
}

// NewTicketResponse maps a ticket with its joined relations.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		Code:        t.Code,
		Status:      t.Status,
		ServiceType: t.ServiceType,
		Description: t.Description,
		ClientID:    t.ClientID,
		VehicleID:   t.VehicleID,
		PlanID:      t.PlanID,
		Address:     t.Address,
		City:        t.City,
		State:       t.State,
		Latitude:    t.Latitude,
		Longitude:   t.Longitude,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Costs:       NewCostsResponse(t.MainCosts),
		Payment:     newPaymentResponse(t.MainPayment),
		Support:     make([]SupportResponse, 0, len(t.Support)),
	}
	if t.Client != nil {
		resp.Client = &RefResponse{ID: t.Client.ID, Name: t.Client.Name}
	}
	if t.Operator != nil {
		resp.Operator = &RefResponse{ID: t.Operator.ID, Name: t.Operator.Name}
	}
	if t.MainAgent != nil {
		resp.MainAgent = &RefResponse{ID: t.MainAgent.ID, Name: t.MainAgent.Name}
	} else if t.MainAgentID != nil {
		resp.MainAgent = &RefResponse{ID: *t.MainAgentID}
	}
	for _, s := range t.Support {
		ref := RefResponse{ID: s.AgentID}
		if s.Agent != nil {
			ref.Name = s.Agent.Name
		}
		resp.Support = append(resp.Support, SupportResponse{
			Position: s.Position,
			Agent:    ref,
			Costs:    NewCostsResponse(s.Costs),
			Payment:  newPaymentResponse(s.Payment),
		})
	}
	return resp
}

// PhotoResponse metadata.
type PhotoResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPhotoResponse maps a photo.
func NewPhotoResponse(p *domain.TicketPhoto) PhotoResponse {
	return PhotoResponse{ID: p.ID, URL: p.URL, Caption: p.Caption, CreatedAt: p.CreatedAt}
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                  `json:"id"`
	OperatorID *string                 `json:"operator_id"`
	Operator   string                  `json:"operator_name,omitempty"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// TicketDetailResponse adds photos and history.
type TicketDetailResponse struct {
	TicketResponse
	Photos  []PhotoResponse   `json:"photos"`
	History []HistoryResponse `json:"history"`
}

// NewTicketDetailResponse maps a ticket detail.
func NewTicketDetailResponse(t *domain.Ticket, photos []domain.TicketPhoto, history []domain.TicketHistory) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketResponse: NewTicketResponse(t),
		Photos:         make([]PhotoResponse, 0, len(photos)),
		History:        make([]HistoryResponse, 0, len(history)),
	}
	for i := range photos {
		resp.Photos = append(resp.Photos, NewPhotoResponse(&photos[i]))
	}
	resp.History = append(resp.History, NewHistoryResponses(history)...)
	return resp
}

// NewHistoryResponses maps audit entries in order.
func NewHistoryResponses(history []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(history))
	for _, h := range history {
		out = append(out, HistoryResponse{
			ID:         h.ID,
			OperatorID: h.OperatorID,
			Operator:   h.OperatorName,
			ChangeType: h.ChangeType,
			OldValue:   h.OldValue,
			NewValue:   h.NewValue,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out
}
