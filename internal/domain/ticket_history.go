package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus  TicketChangeType = "status_change"
	ChangeTypePayment TicketChangeType = "payment_change"
	ChangeTypeSupport TicketChangeType = "support_change"
)

// Valid reports whether t is a known change type.
func (t TicketChangeType) Valid() bool {
	switch t {
	case ChangeTypeStatus, ChangeTypePayment, ChangeTypeSupport:
		return true
	}
	return false
}

// TicketHistory is an immutable audit trail entry. OperatorName is only filled on reads.
type TicketHistory struct {
	ID           string
	TicketID     string
	OperatorID   *string
	OperatorName string
	ChangeType   TicketChangeType
	OldValue     map[string]any
	NewValue     map[string]any
	CreatedAt    time.Time
}
