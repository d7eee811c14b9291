// Package finance turns completed tickets into per-responder payment lines and
// totals them for the ledger and settlement screens.
package finance

import (
	"github.com/spec-kit/dispatch-service/internal/domain"
)

// ExpandPaymentLines emits one line for the main agent, when one is attached,
// followed by one line per populated support slot in position order.
func ExpandPaymentLines(tickets []domain.Ticket) []domain.PaymentLine {
	lines := make([]domain.PaymentLine, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]

		if ticket.MainAgentID != nil && *ticket.MainAgentID != "" {
			lines = append(lines, newLine(ticket, domain.MainSlot, *ticket.MainAgentID, ticket.MainAgent, ticket.MainCosts, ticket.MainPayment))
		}

		for j, support := range ticket.Support {
			if support.AgentID == "" {
				continue
			}
			slot := domain.ResponderSlot(support.Position)
			if slot <= domain.MainSlot {
				slot = domain.ResponderSlot(j + 1)
			}
			lines = append(lines, newLine(ticket, slot, support.AgentID, support.Agent, support.Costs, support.Payment))
		}
	}
	return lines
}

func newLine(ticket *domain.Ticket, slot domain.ResponderSlot, agentID string, agent *domain.Agent, costs domain.Costs, payment domain.Payment) domain.PaymentLine {
	line := domain.PaymentLine{
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		ClientName: ticket.ClientName(),
		StartTime:  ticket.StartTime,
		Slot:       slot,
		Role:       slot.Label(),
		AgentID:    agentID,
		Toll:       costs.TollAmount(),
		Food:       costs.FoodAmount(),
		Other:      costs.OtherAmount(),
		Total:      costs.Total(),
		Status:     payment.EffectiveStatus(),
		PaidAt:     payment.PaidAt,
	}
	if agent != nil {
		line.AgentName = agent.Name
		line.Armed = agent.Armed
		line.Payout = agent.Payout
	}
	return line
}
