package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusCancelled},
	TicketStatusCompleted:  {},
	TicketStatusCancelled:  {},
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Costs are the per-responder expenses recorded on a ticket. A component the
// operator never filled in stays invalid and counts as zero.
type Costs struct {
	Toll  decimal.NullDecimal
	Food  decimal.NullDecimal
	Other decimal.NullDecimal
}

// Total sums the three components.
func (c Costs) Total() decimal.Decimal {
	return c.TollAmount().Add(c.FoodAmount()).Add(c.OtherAmount())
}

func (c Costs) TollAmount() decimal.Decimal  { return orZero(c.Toll) }
func (c Costs) FoodAmount() decimal.Decimal  { return orZero(c.Food) }
func (c Costs) OtherAmount() decimal.Decimal { return orZero(c.Other) }

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// Payment is the settlement state of one responder slot.
type Payment struct {
	Status *PaymentStatus
	PaidAt *time.Time
}

// EffectiveStatus reads a missing status as pending.
func (p Payment) EffectiveStatus() PaymentStatus {
	if p.Status == nil || *p.Status == "" {
		return PaymentStatusPending
	}
	return *p.Status
}

// SupportAssignment attaches a support responder to a ticket at a 1-based position.
type SupportAssignment struct {
	ID       string
	TicketID string
	AgentID  string
	Position int
	Agent    *Agent
	Costs    Costs
	Payment  Payment
}

// Ticket is a dispatched incident or service call.
type Ticket struct {
	ID          string
	Code        string
	Status      TicketStatus
	ServiceType string
	Description string

	ClientID    *string
	VehicleID   *string
	PlanID      *string
	OperatorID  *string
	MainAgentID *string

	Address   string
	City      string
	State     string
	Latitude  *float64
	Longitude *float64

	StartTime *time.Time
	EndTime   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	MainCosts   Costs
	MainPayment Payment

	Client    *Client
	Operator  *Operator
	MainAgent *Agent
	Support   []SupportAssignment
}

// ClientName returns the joined client's name, or "" when absent.
func (t *Ticket) ClientName() string {
	if t.Client == nil {
		return ""
	}
	return t.Client.Name
}

// TicketPhoto is evidence attached to a ticket by a field agent.
type TicketPhoto struct {
	ID        string
	TicketID  string
	URL       string
	Caption   string
	CreatedAt time.Time
}
