package finance

import (
	"github.com/shopspring/decimal"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// AgentStatement groups one agent's lines for settlement.
type AgentStatement struct {
	AgentID   string
	AgentName string
	Armed     bool
	Payout    domain.PayoutDetails
	Lines     []domain.PaymentLine
	Pending   decimal.Decimal
	Paid      decimal.Decimal
}

// Statements groups lines by agent id in order of first appearance.
func Statements(lines []domain.PaymentLine) []AgentStatement {
	index := make(map[string]int)
	var out []AgentStatement
	for _, line := range lines {
		i, ok := index[line.AgentID]
		if !ok {
			i = len(out)
			index[line.AgentID] = i
			out = append(out, AgentStatement{
				AgentID:   line.AgentID,
				AgentName: line.AgentName,
				Armed:     line.Armed,
				Payout:    line.Payout,
				Pending:   decimal.Zero,
				Paid:      decimal.Zero,
			})
		}
		stmt := &out[i]
		stmt.Lines = append(stmt.Lines, line)
		switch line.Status {
		case domain.PaymentStatusPaid:
			stmt.Paid = stmt.Paid.Add(line.Total)
		default:
			stmt.Pending = stmt.Pending.Add(line.Total)
		}
	}
	return out
}
