package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money renders an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NullMoney renders an optional amount; unset stays null.
func NullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

// ToNullDecimal converts an optional request amount.
func ToNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// RangeResponse echoes the resolved reporting window. End is exclusive.
type RangeResponse struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// ListResponse wraps paged listings.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
