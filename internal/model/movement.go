package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical ISO date layout.
const DateFormat = "2006-01-02"

// Direction is the flow of a movement relative to the account holder.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// DirectionOf returns the direction implied by the sign of amount.
func DirectionOf(amount decimal.Decimal) Direction {
	if amount.IsPositive() {
		return DirectionIn
	}
	return DirectionOut
}

// Movement is a canonical bank transaction.
type Movement struct {
	ID           string           `json:"id"`
	BookingDate  time.Time        `json:"bookingDate"`
	ValueDate    *time.Time       `json:"valueDate"`
	Amount       decimal.Decimal  `json:"amount"` // signed, never zero
	Direction    Direction        `json:"direction"`
	Description  string           `json:"description"`
	Reference    string           `json:"reference"`
	Counterparty string           `json:"counterparty"`
	Balance      *decimal.Decimal `json:"balance"`
	Account      string           `json:"account"`
	CBICausale   string           `json:"cbiCausale,omitempty"` // normalized, "" if none
	SourceLine   int              `json:"sourceLine"`
}
