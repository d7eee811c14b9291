package reporting

import (
	"sort"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// GeneralOperatorLabel buckets tickets opened without an operator.
const GeneralOperatorLabel = "General/Central"

// FilterByCreated keeps tickets created inside the range, preserving order.
func FilterByCreated(tickets []domain.Ticket, r DateRange) []domain.Ticket {
	if r.Unbounded() {
		return tickets
	}
	out := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if r.Contains(ticket.CreatedAt) {
			out = append(out, ticket)
		}
	}
	return out
}

// TrendPoint is one non-empty day on the trend chart.
type TrendPoint struct {
	Day   time.Time
	Label string
	Count int
}

// TrendByDay counts tickets per calendar day in loc. Days without tickets are
// omitted. Points are chronological and labelled dd/MM.
func TrendByDay(tickets []domain.Ticket, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[time.Time]int)
	for _, ticket := range tickets {
		local := ticket.CreatedAt.In(loc)
		counts[time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)]++
	}

	points := make([]TrendPoint, 0, len(counts))
	for day, count := range counts {
		points = append(points, TrendPoint{Day: day, Label: day.Format("02/01"), Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Day.Before(points[j].Day) })
	return points
}

// AgentRank is one row of the agent performance table.
type AgentRank struct {
	AgentID        string
	AgentName      string
	Completed      int
	AverageMinutes float64
}

type durationTally struct {
	minutes float64
	count   int
}

// RankAgents ranks main agents by completed tickets, most first. Ties keep
// first-appearance order. The average covers only tickets whose end time is
// after creation; other tickets still count toward Completed.
func RankAgents(tickets []domain.Ticket) []AgentRank {
	index := make(map[string]int)
	var (
		ranks   []AgentRank
		tallies []durationTally
	)
	for _, ticket := range tickets {
		if ticket.Status != domain.TicketStatusCompleted || ticket.MainAgentID == nil {
			continue
		}
		id := *ticket.MainAgentID
		i, ok := index[id]
		if !ok {
			i = len(ranks)
			index[id] = i
			name := id
			if ticket.MainAgent != nil && ticket.MainAgent.Name != "" {
				name = ticket.MainAgent.Name
			}
			ranks = append(ranks, AgentRank{AgentID: id, AgentName: name})
			tallies = append(tallies, durationTally{})
		}
		ranks[i].Completed++
		if ticket.EndTime != nil {
			if minutes := ticket.EndTime.Sub(ticket.CreatedAt).Minutes(); minutes > 0 {
				tallies[i].minutes += minutes
				tallies[i].count++
			}
		}
	}

	for i := range ranks {
		if tallies[i].count > 0 {
			ranks[i].AverageMinutes = tallies[i].minutes / float64(tallies[i].count)
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Completed > ranks[j].Completed })
	return ranks
}

// OperatorRank is one row of the operator volume table. OperatorID is empty
// for the general bucket.
type OperatorRank struct {
	OperatorID string
	Name       string
	Tickets    int
}

// RankOperators counts every ticket per operator, most first, ties in
// first-appearance order.
func RankOperators(tickets []domain.Ticket) []OperatorRank {
	index := make(map[string]int)
	var ranks []OperatorRank
	for _, ticket := range tickets {
		id, name := "", GeneralOperatorLabel
		if ticket.OperatorID != nil && *ticket.OperatorID != "" {
			id, name = *ticket.OperatorID, *ticket.OperatorID
			if ticket.Operator != nil && ticket.Operator.Name != "" {
				name = ticket.Operator.Name
			}
		}
		i, ok := index[id]
		if !ok {
			i = len(ranks)
			index[id] = i
			ranks = append(ranks, OperatorRank{OperatorID: id, Name: name})
		}
		ranks[i].Tickets++
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Tickets > ranks[j].Tickets })
	return ranks
}

// StatusDistribution is the pie chart's fixed buckets.
type StatusDistribution struct {
	Completed int
	Open      int
	Cancelled int
}

// DistributionOf counts completed, open and cancelled tickets. In-progress
// tickets fall in no bucket.
func DistributionOf(tickets []domain.Ticket) StatusDistribution {
	var dist StatusDistribution
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusCompleted:
			dist.Completed++
		case domain.TicketStatusOpen:
			dist.Open++
		case domain.TicketStatusCancelled:
			dist.Cancelled++
		}
	}
	return dist
}
