package model

import "errors"

// Import and extraction failure kinds. Row- and file-level issues wrap one
// of these so callers can classify them with errors.Is.
var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrMappingIncomplete    = errors.New("mapping incomplete")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrDuplicateRow         = errors.New("duplicate row")
	ErrDuplicateInvoice     = errors.New("duplicate invoice")
	ErrMalformedXML         = errors.New("malformed xml")
	ErrMissingSection       = errors.New("missing section")
	ErrMissingInvoiceNumber = errors.New("missing invoice number")
	ErrNoInvoiceFiles       = errors.New("no xml invoice files")
)
