package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the binary settlement state of a payment line.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// ResponderSlot identifies a responder on a ticket: 0 is the main agent and
// N >= 1 is the support agent at position N.
type ResponderSlot int

const MainSlot ResponderSlot = 0

func (s ResponderSlot) IsMain() bool { return s == MainSlot }

// Label renders the role label shown in the ledger.
func (s ResponderSlot) Label() string {
	if s.IsMain() {
		return "Main Agent"
	}
	return fmt.Sprintf("Support %d", int(s))
}

// PayoutDetails describes how an agent is paid.
type PayoutDetails struct {
	PixKey      string
	BankName    string
	BankAgency  string
	BankAccount string
	AccountType string
}

// PaymentLine is one billable cost record for one responder on one ticket.
type PaymentLine struct {
	TicketID   string
	TicketCode string
	ClientName string
	StartTime  *time.Time
	Slot       ResponderSlot
	Role       string
	AgentID    string
	AgentName  string
	Armed      bool
	Payout     PayoutDetails
	Toll       decimal.Decimal
	Food       decimal.Decimal
	Other      decimal.Decimal
	Total      decimal.Decimal
	Status     PaymentStatus
	PaidAt     *time.Time
}
