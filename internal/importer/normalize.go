package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/riconcilia/riconcilia/internal/id"
	"github.com/riconcilia/riconcilia/internal/model"
	"github.com/riconcilia/riconcilia/internal/textnorm"
)

// RowIssue reports a statement row that was not imported. Row is the
// 1-based source line, or 0 for a table-level failure.
type RowIssue struct {
	Row    int    `json:"rowNumber"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e RowIssue) Error() string {
	if e.Row == 0 {
		return "table: " + e.Reason
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e RowIssue) Unwrap() error { return e.Err }

// NormalizeStats counts the outcome of a normalization run.
type NormalizeStats struct {
	TotalRows     int `json:"totalRows"`
	ImportedRows  int `json:"importedRows"`
	ErrorRows     int `json:"errorRows"`
	DuplicateRows int `json:"duplicateRows"`
}

// NormalizeResult holds the movements of a statement plus everything that
// was left out.
type NormalizeResult struct {
	Movements  []model.Movement `json:"movements"`
	Errors     []RowIssue       `json:"errors"`
	Duplicates []RowIssue       `json:"duplicates"`
	Stats      NormalizeStats   `json:"stats"`
}

// binding resolves a FieldMapping to column positions of one table.
type binding struct {
	cols [model.NumFields]int
}

func bind(table model.RawTable, mapping model.FieldMapping) binding {
	var b binding
	for _, f := range model.Fields() {
		b.cols[f] = -1
		if header, ok := mapping.Column(f); ok {
			b.cols[f] = table.HeaderIndex(header)
		}
	}
	return b
}

func (b binding) has(f model.Field) bool {
	return b.cols[f] >= 0
}

func (b binding) value(r model.Record, f model.Field) string {
	i := b.cols[f]
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// missingMandatory lists the required fields the binding cannot
// resolve.
func (b binding) missingMandatory() []string {
	var missing []string
	if !b.has(model.FieldBookingDate) {
		missing = append(missing, model.FieldBookingDate.Key())
	}
	if !b.has(model.FieldAmount) && !b.has(model.FieldDebit) && !b.has(model.FieldCredit) {
		missing = append(missing, "amount or debit/credit")
	}
	return missing
}

// Normalize converts table records into canonical movements using mapping.
// A mapping without a booking date or any amount column fails the whole
// table with a single issue wrapping model.ErrMappingIncomplete. Otherwise
// bad rows are reported individually and the rest are imported.
func Normalize(table model.RawTable, mapping model.FieldMapping) NormalizeResult {
	b := bind(table, mapping)

	if missing := b.missingMandatory(); len(missing) > 0 {
		return NormalizeResult{
			Movements:  []model.Movement{},
			Duplicates: []RowIssue{},
			Errors: []RowIssue{{
				Reason: "mapping incomplete: " + strings.Join(missing, ", "),
				Err:    model.ErrMappingIncomplete,
			}},
			Stats: NormalizeStats{
				TotalRows: len(table.Records),
				ErrorRows: len(table.Records),
			},
		}
	}

	res := NormalizeResult{
		Movements:  []model.Movement{},
		Errors:     []RowIssue{},
		Duplicates: []RowIssue{},
	}
	seen := make(map[string]bool, len(table.Records))

	for _, rec := range table.Records {
		mv, issue := b.movement(rec)
		if issue != nil {
			res.Errors = append(res.Errors, *issue)
			continue
		}

		key := dedupKey(mv)
		if seen[key] {
			res.Duplicates = append(res.Duplicates, RowIssue{
				Row:    rec.Line,
				Reason: "possible duplicate",
				Err:    model.ErrDuplicateRow,
			})
			continue
		}
		seen[key] = true
		res.Movements = append(res.Movements, mv)
	}

	res.Stats = NormalizeStats{
		TotalRows:     len(table.Records),
		ImportedRows:  len(res.Movements),
		ErrorRows:     len(res.Errors),
		DuplicateRows: len(res.Duplicates),
	}
	return res
}

func (b binding) movement(rec model.Record) (model.Movement, *RowIssue) {
	bookingDate, ok := ParseDate(b.value(rec, model.FieldBookingDate))
	if !ok {
		return model.Movement{}, &RowIssue{
			Row:    rec.Line,
			Reason: "invalid booking date",
			Err:    model.ErrInvalidDate,
		}
	}

	amount, ok := b.amount(rec)
	if !ok || amount.IsZero() {
		return model.Movement{}, &RowIssue{
			Row:    rec.Line,
			Reason: "invalid or zero amount",
			Err:    model.ErrInvalidAmount,
		}
	}

	mv := model.Movement{
		ID:           id.FormatMovementID(rec.Line),
		BookingDate:  bookingDate,
		Amount:       amount,
		Direction:    model.DirectionOf(amount),
		Description:  textnorm.Compact(b.value(rec, model.FieldDescription)),
		Reference:    textnorm.Compact(b.value(rec, model.FieldReference)),
		Counterparty: textnorm.Compact(b.value(rec, model.FieldCounterparty)),
		Account:      textnorm.Compact(b.value(rec, model.FieldAccount)),
		SourceLine:   rec.Line,
	}
	if vd, ok := ParseDate(b.value(rec, model.FieldValueDate)); ok {
		mv.ValueDate = &vd
	}
	if bal, ok := ParseAmount(b.value(rec, model.FieldBalance)); ok {
		mv.Balance = &bal
	}

	mv.CBICausale = textnorm.NormalizeCBI(b.value(rec, model.FieldCBICausale))
	if mv.CBICausale == "" {
		mv.CBICausale = textnorm.ExtractCBI(mv.Description)
	}
	if mv.CBICausale == "" {
		mv.CBICausale = textnorm.ExtractCBI(mv.Reference)
	}
	return mv, nil
}

// amount prefers the single amount column and falls back to the
// debit/credit pair: credit counts in, debit counts out.
func (b binding) amount(rec model.Record) (decimal.Decimal, bool) {
	if direct := strings.TrimSpace(b.value(rec, model.FieldAmount)); direct != "" {
		return ParseAmount(direct)
	}

	debit, hasDebit := ParseAmount(b.value(rec, model.FieldDebit))
	credit, hasCredit := ParseAmount(b.value(rec, model.FieldCredit))
	switch {
	case hasDebit && hasCredit:
		return credit.Abs().Sub(debit.Abs()), true
	case hasCredit:
		return credit.Abs(), true
	case hasDebit:
		return debit.Abs().Neg(), true
	}
	return decimal.Decimal{}, false
}

func dedupKey(mv model.Movement) string {
	return strings.Join([]string{
		mv.BookingDate.Format(model.DateFormat),
		mv.Amount.StringFixed(2),
		strings.ToLower(mv.Reference),
		strings.ToLower(mv.Description),
	}, "|")
}
