package domain

import "time"

// AgentTier is the performance grade assigned by supervisors.
type AgentTier string

const (
	AgentTierPoor      AgentTier = "poor"
	AgentTierGood      AgentTier = "good"
	AgentTierExcellent AgentTier = "excellent"
)

func (t AgentTier) Valid() bool {
	switch t {
	case AgentTierPoor, AgentTierGood, AgentTierExcellent:
		return true
	}
	return false
}

// Agent is a field responder.
type Agent struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Document  string
	Armed     bool
	Tier      AgentTier
	Active    bool
	Payout    PayoutDetails
	Address   string
	City      string
	State     string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLocation reports whether the agent has been geocoded.
func (a *Agent) HasLocation() bool {
	return a != nil && a.Latitude != nil && a.Longitude != nil
}
