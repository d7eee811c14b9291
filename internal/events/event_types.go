package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketSupportChanged EventType = "ticket_support_changed"
	EventPaymentStatusChanged EventType = "payment_status_changed"
)

// Actor identifies the operator behind an event.
type Actor struct {
	OperatorID *string             `json:"operator_id,omitempty"`
	Role       domain.OperatorRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Code        string  `json:"code"`
	ServiceType string  `json:"service_type"`
	ClientID    *string `json:"client_id,omitempty"`
	MainAgentID *string `json:"main_agent_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketSupportChangedPayload payload.
type TicketSupportChangedPayload struct {
	AgentIDs []string `json:"agent_ids"`
}

// PaymentStatusChangedPayload payload.
type PaymentStatusChangedPayload struct {
	Slot      domain.ResponderSlot `json:"slot"`
	NewStatus domain.PaymentStatus `json:"new_status"`
	PaidAt    *time.Time           `json:"paid_at,omitempty"`
}
