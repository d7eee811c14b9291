package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// Summary holds the ledger's headline totals.
type Summary struct {
	PendingValue  decimal.Decimal
	PendingAgents int
	PaidValue     decimal.Decimal
	PaidAgents    int
}

// Summarize totals pending lines over allTime and paid lines over inRange.
// Agent counts are distinct by agent id.
func Summarize(allTime, inRange []domain.PaymentLine) Summary {
	pendingValue, pendingAgents := sumByStatus(allTime, domain.PaymentStatusPending)
	paidValue, paidAgents := sumByStatus(inRange, domain.PaymentStatusPaid)
	return Summary{
		PendingValue:  pendingValue,
		PendingAgents: pendingAgents,
		PaidValue:     paidValue,
		PaidAgents:    paidAgents,
	}
}

func sumByStatus(lines []domain.PaymentLine, status domain.PaymentStatus) (decimal.Decimal, int) {
	total := decimal.Zero
	agents := make(map[string]struct{})
	for _, line := range lines {
		if line.Status != status {
			continue
		}
		total = total.Add(line.Total)
		agents[line.AgentID] = struct{}{}
	}
	return total, len(agents)
}

// TotalOf sums every line regardless of status.
func TotalOf(lines []domain.PaymentLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total)
	}
	return total
}

// FilterByStart keeps lines whose ticket started inside [from, to]. Lines with no
// start time fall outside any bounded range. Nil bounds are open.
func FilterByStart(lines []domain.PaymentLine, from, to *time.Time) []domain.PaymentLine {
	if from == nil && to == nil {
		return lines
	}
	out := make([]domain.PaymentLine, 0, len(lines))
	for _, line := range lines {
		if line.StartTime == nil {
			continue
		}
		if from != nil && line.StartTime.Before(*from) {
			continue
		}
		if to != nil && line.StartTime.After(*to) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LineFilter narrows the displayed ledger rows.
type LineFilter struct {
	Status  *domain.PaymentStatus
	AgentID *string
}

// Apply returns the lines matching every set criterion.
func (f LineFilter) Apply(lines []domain.PaymentLine) []domain.PaymentLine {
	if f.Status == nil && f.AgentID == nil {
		return lines
	}
	out := make([]domain.PaymentLine, 0, len(lines))
	for _, line := range lines {
		if f.Status != nil && line.Status != *f.Status {
			continue
		}
		if f.AgentID != nil && line.AgentID != *f.AgentID {
			continue
		}
		out = append(out, line)
	}
	return out
}
