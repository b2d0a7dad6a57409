package id

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	movementPrefix  = "row_"
	suggestionSep   = "__"
	invoiceFieldSep = "|"
)

// FormatMovementID returns a movement ID like "row_12" for source line 12.
func FormatMovementID(line int) string {
	return movementPrefix + strconv.Itoa(line)
}

// ParseMovementID returns the source line encoded in a movement ID.
func ParseMovementID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, movementPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid movement ID format: %q", id)
	}
	line, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid line in movement ID %q: %w", id, err)
	}
	return line, nil
}

// FormatInvoiceID joins the dedup key of an invoice:
// type|number|date|amount|party. An empty party becomes "na".
func FormatInvoiceID(invoiceType, number, date, amount, party string) string {
	if party == "" {
		party = "na"
	}
	return strings.Join([]string{invoiceType, number, date, amount, party}, invoiceFieldSep)
}

// FormatSuggestionID returns "<invoiceID>__<movementID>".
func FormatSuggestionID(invoiceID, movementID string) string {
	return invoiceID + suggestionSep + movementID
}

// SplitSuggestionID splits a suggestion ID into invoice and movement IDs.
// Movement IDs never contain the separator, so the last one wins.
func SplitSuggestionID(id string) (invoiceID, movementID string, err error) {
	i := strings.LastIndex(id, suggestionSep)
	if i <= 0 || i+len(suggestionSep) >= len(id) {
		return "", "", fmt.Errorf("invalid suggestion ID format: %q", id)
	}
	return id[:i], id[i+len(suggestionSep):], nil
}
