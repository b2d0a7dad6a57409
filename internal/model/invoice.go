package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType is the direction of an electronic invoice.
type InvoiceType string

const (
	// InvoiceIssued is an invoice we issued; its payment comes in.
	InvoiceIssued InvoiceType = "emessa"
	// InvoiceReceived is an invoice we received; its payment goes out.
	InvoiceReceived InvoiceType = "ricevuta"
)

// ParseInvoiceType validates an invoice type string.
func ParseInvoiceType(s string) (InvoiceType, error) {
	switch t := InvoiceType(strings.ToLower(strings.TrimSpace(s))); t {
	case InvoiceIssued, InvoiceReceived:
		return t, nil
	}
	return "", fmt.Errorf("invalid invoice type %q (want emessa or ricevuta)", s)
}

// ExpectedDirection returns the movement direction that pays this kind of
// invoice.
func (t InvoiceType) ExpectedDirection() Direction {
	if t == InvoiceIssued {
		return DirectionIn
	}
	return DirectionOut
}

// Invoice is a canonical electronic invoice.
type Invoice struct {
	ID                     string          `json:"id"`
	FileName               string          `json:"fileName"`
	Type                   InvoiceType     `json:"tipo"`
	Number                 string          `json:"numero"`
	DocumentDate           time.Time       `json:"dataDocumento"`
	DueDate                time.Time       `json:"dataScadenza"`
	TotalAmount            decimal.Decimal `json:"importoTotale"`
	AmountDue              decimal.Decimal `json:"importoDaPagare"`
	CounterpartyName       string          `json:"controparteName"`
	CounterpartyVAT        string          `json:"controparteVat"`
	CounterpartyFiscalCode string          `json:"controparteFiscalCode"`
	CBICausale             string          `json:"cbiCausale,omitempty"`
}

// TargetDate is the date a payment is expected: the due date, else the
// document date.
func (inv Invoice) TargetDate() time.Time {
	if !inv.DueDate.IsZero() {
		return inv.DueDate
	}
	return inv.DocumentDate
}
