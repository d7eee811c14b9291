package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a customer under a service plan.
type Client struct {
	ID         string
	Name       string
	Document   string
	Phone      string
	Email      string
	PostalCode string
	Address    string
	District   string
	City       string
	State      string
	Latitude   *float64
	Longitude  *float64
	PlanID     *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Vehicle belongs to a client and is the usual subject of a ticket.
type Vehicle struct {
	ID        string
	ClientID  string
	Plate     string
	Brand     string
	Model     string
	Color     string
	Year      *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Plan is a service plan sold to clients.
type Plan struct {
	ID           string
	Name         string
	Description  string
	MonthlyPrice decimal.Decimal
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
