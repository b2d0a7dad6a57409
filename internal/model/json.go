package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Movements and invoices carry calendar dates, so their JSON form uses
// DateFormat instead of RFC 3339 timestamps.

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

type movementJSON Movement

// MarshalJSON writes bookingDate and valueDate as YYYY-MM-DD.
func (m Movement) MarshalJSON() ([]byte, error) {
	out := struct {
		movementJSON
		BookingDate string  `json:"bookingDate"`
		ValueDate   *string `json:"valueDate"`
	}{movementJSON: movementJSON(m), BookingDate: formatDate(m.BookingDate)}
	if m.ValueDate != nil {
		v := formatDate(*m.ValueDate)
		out.ValueDate = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (m *Movement) UnmarshalJSON(data []byte) error {
	var in struct {
		movementJSON
		BookingDate string  `json:"bookingDate"`
		ValueDate   *string `json:"valueDate"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Movement(in.movementJSON)
	var err error
	if out.BookingDate, err = parseDate("bookingDate", in.BookingDate); err != nil {
		return err
	}
	if in.ValueDate != nil {
		v, err := parseDate("valueDate", *in.ValueDate)
		if err != nil {
			return err
		}
		out.ValueDate = &v
	}
	*m = out
	return nil
}

type invoiceJSON Invoice

// MarshalJSON writes dataDocumento and dataScadenza as YYYY-MM-DD.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		invoiceJSON
		DocumentDate string `json:"dataDocumento"`
		DueDate      string `json:"dataScadenza"`
	}{
		invoiceJSON:  invoiceJSON(inv),
		DocumentDate: formatDate(inv.DocumentDate),
		DueDate:      formatDate(inv.DueDate),
	})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	var in struct {
		invoiceJSON
		DocumentDate string `json:"dataDocumento"`
		DueDate      string `json:"dataScadenza"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Invoice(in.invoiceJSON)
	var err error
	if out.DocumentDate, err = parseDate("dataDocumento", in.DocumentDate); err != nil {
		return err
	}
	if out.DueDate, err = parseDate("dataScadenza", in.DueDate); err != nil {
		return err
	}
	*inv = out
	return nil
}
