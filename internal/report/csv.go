// Package report exports match results as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/riconcilia/riconcilia/internal/decisions"
	"github.com/riconcilia/riconcilia/internal/matching"
	"github.com/riconcilia/riconcilia/internal/model"
)

// Header is the CSV header of a match report.
const Header = "suggestion_id,type,score,decision,invoice_id,invoice_type,invoice_number,counterparty,target_date,amount_due,movement_id,booking_date,movement_amount,amount_diff,day_difference,cbi_status,reasons"

// Row types for invoices and movements left without a pair.
const (
	TypeUnmatchedInvoice  = "unmatched_invoice"
	TypeUnmatchedMovement = "unmatched_movement"
)

const (
	numFields     = 17
	colID         = 0
	colType       = 1
	colScore      = 2
	colDecision   = 3
	colInvoiceID  = 4
	colInvType    = 5
	colInvNumber  = 6
	colCparty     = 7
	colTarget     = 8
	colAmountDue  = 9
	colMovementID = 10
	colBooking    = 11
	colMovAmount  = 12
	colAmountDiff = 13
	colDayDiff    = 14
	colCBIStatus  = 15
	colReasons    = 16

	reasonSep = "; "
)

// Write writes the header, one row per suggestion, then one row per
// unmatched invoice and unmatched movement. A nil table reports every
// suggestion as pending.
func Write(w io.Writer, res matching.Result, tbl *decisions.Table) error {
	if tbl == nil {
		tbl = decisions.NewTable(nil)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, s := range res.Suggestions {
		if err := cw.Write(MarshalSuggestion(s, tbl.Get(s.ID))); err != nil {
			return fmt.Errorf("writing suggestion %d: %w", i, err)
		}
	}
	for i, inv := range res.UnmatchedInvoices {
		if err := cw.Write(MarshalUnmatchedInvoice(inv)); err != nil {
			return fmt.Errorf("writing unmatched invoice %d: %w", i, err)
		}
	}
	for i, mov := range res.UnmatchedMovements {
		if err := cw.Write(MarshalUnmatchedMovement(mov)); err != nil {
			return fmt.Errorf("writing unmatched movement %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalSuggestion converts a suggestion and its decision to a CSV row.
func MarshalSuggestion(s matching.Suggestion, d decisions.Decision) []string {
	row := make([]string, numFields)
	row[colID] = s.ID
	row[colType] = string(s.Type)
	row[colScore] = strconv.Itoa(s.Score)
	row[colDecision] = string(d)
	putInvoice(row, s.Invoice)
	putMovement(row, s.Movement)
	row[colAmountDiff] = s.AmountDiff.StringFixed(2)
	if s.DayDifference != nil {
		row[colDayDiff] = strconv.Itoa(*s.DayDifference)
	}
	row[colCBIStatus] = string(s.CBIStatus)
	row[colReasons] = strings.Join(s.Reasons, reasonSep)
	return row
}

// MarshalUnmatchedInvoice converts an invoice with no movement to a CSV row.
func MarshalUnmatchedInvoice(inv model.Invoice) []string {
	row := make([]string, numFields)
	row[colType] = TypeUnmatchedInvoice
	putInvoice(row, inv)
	return row
}

// MarshalUnmatchedMovement converts a movement no invoice claimed to a CSV
// row.
func MarshalUnmatchedMovement(mov model.Movement) []string {
	row := make([]string, numFields)
	row[colType] = TypeUnmatchedMovement
	putMovement(row, mov)
	return row
}

func putInvoice(row []string, inv model.Invoice) {
	row[colInvoiceID] = inv.ID
	row[colInvType] = string(inv.Type)
	row[colInvNumber] = inv.Number
	row[colCparty] = inv.CounterpartyName
	row[colTarget] = inv.TargetDate().Format(model.DateFormat)
	row[colAmountDue] = inv.AmountDue.StringFixed(2)
}

func putMovement(row []string, mov model.Movement) {
	row[colMovementID] = mov.ID
	row[colBooking] = mov.BookingDate.Format(model.DateFormat)
	row[colMovAmount] = mov.Amount.StringFixed(2)
}
