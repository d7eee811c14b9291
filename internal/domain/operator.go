package domain

import "time"

// OperatorRole enumerates dispatch staff roles.
type OperatorRole string

const (
	OperatorRoleAdmin    OperatorRole = "admin"
	OperatorRoleOperator OperatorRole = "operator"
)

func (r OperatorRole) Valid() bool {
	return r == OperatorRoleAdmin || r == OperatorRoleOperator
}

// Operator is a dispatch staff member who opens and handles tickets.
type Operator struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         OperatorRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
