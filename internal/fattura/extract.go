// Package fattura extracts canonical invoices from FatturaPA electronic
// invoice XML documents.
package fattura

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/riconcilia/riconcilia/internal/id"
	"github.com/riconcilia/riconcilia/internal/model"
	"github.com/riconcilia/riconcilia/internal/textnorm"
)

var (
	isoDatePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	euDate        = regexp.MustCompile(`^(\d{2})[/.](\d{2})[/.](\d{4})$`)
)

// Extract decodes one FatturaPA document into an Invoice of type t.
func Extract(data []byte, fileName string, t model.InvoiceType) (model.Invoice, error) {
	doc, err := decode(data)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("%w: %v", model.ErrMalformedXML, err)
	}
	if len(doc.Bodies) == 0 {
		return model.Invoice{}, fmt.Errorf("%w: FatturaElettronicaBody not found", model.ErrMissingSection)
	}
	b := doc.Bodies[0]
	gen := b.General.Document

	number := textnorm.Compact(gen.Number)
	docDate, hasDocDate := parseDate(gen.Date)
	total, hasTotal := parseAmount(gen.Total)
	pay := paymentSummary(b.Payments)

	if number == "" {
		return model.Invoice{}, fmt.Errorf("%w", model.ErrMissingInvoiceNumber)
	}
	if !hasDocDate {
		return model.Invoice{}, fmt.Errorf("%w: document date %q", model.ErrInvalidDate, strings.TrimSpace(gen.Date))
	}

	amountDue, hasAmountDue := pay.amountDue, pay.hasAmount
	if !hasAmountDue {
		amountDue, hasAmountDue = total, hasTotal
	}
	if !hasAmountDue || !amountDue.IsPositive() {
		return model.Invoice{}, fmt.Errorf("%w: amount due must be positive", model.ErrInvalidAmount)
	}
	if !hasTotal {
		total = amountDue
	}

	dueDate := pay.dueDate
	if dueDate.IsZero() {
		dueDate = docDate
	}

	cbi := pay.cbi
	if cbi == "" && len(gen.Causale) > 0 {
		cbi = textnorm.ExtractCBI(gen.Causale[0])
	}

	p := counterparty(doc.Header, t)
	inv := model.Invoice{
		FileName:               fileName,
		Type:                   t,
		Number:                 number,
		DocumentDate:           docDate,
		DueDate:                dueDate,
		TotalAmount:            total,
		AmountDue:              amountDue,
		CounterpartyName:       p.name,
		CounterpartyVAT:        p.vat,
		CounterpartyFiscalCode: p.fiscalCode,
		CBICausale:             cbi,
	}
	inv.ID = invoiceID(inv)
	return inv, nil
}

func decode(data []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := checkTrailer(dec); err != nil {
		return nil, err
	}
	return &doc, nil
}

// checkTrailer reads past the root element. Only whitespace, comments and
// processing instructions may follow it.
func checkTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("element <%s> after root element", tok.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) > 0 {
				return fmt.Errorf("text after root element")
			}
		}
	}
}

// charsetReader lets documents declared as ISO-8859-1 or windows-1252
// decode.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

type payment struct {
	dueDate   time.Time
	amountDue decimal.Decimal
	hasAmount bool
	cbi       string
}

// paymentSummary folds every DettaglioPagamento: earliest due date, summed
// amounts and the first payment code found.
func paymentSummary(sections []paymentData) payment {
	var (
		out      payment
		dueDates []time.Time
	)
	for _, sec := range sections {
		for _, d := range sec.Details {
			if due, ok := parseDate(d.DueDate); ok {
				dueDates = append(dueDates, due)
			}
			if amt, ok := parseAmount(d.Amount); ok {
				out.amountDue = out.amountDue.Add(amt)
				out.hasAmount = true
			}
			if out.cbi == "" {
				out.cbi = firstNonEmpty(
					textnorm.NormalizeCBI(d.Code),
					textnorm.NormalizeCBI(d.Causale),
					textnorm.ExtractCBI(d.Causale),
				)
			}
		}
	}
	if len(dueDates) > 0 {
		sort.Slice(dueDates, func(i, j int) bool { return dueDates[i].Before(dueDates[j]) })
		out.dueDate = dueDates[0]
	}
	return out
}

type partyInfo struct {
	name       string
	vat        string
	fiscalCode string
}

// counterparty returns the buyer of an issued invoice or the supplier of a
// received one.
func counterparty(h header, t model.InvoiceType) partyInfo {
	p := h.Supplier
	if t == model.InvoiceIssued {
		p = h.Customer
	}
	if p == nil {
		return partyInfo{}
	}
	reg := p.Data.Registry
	name := textnorm.Compact(reg.Name)
	if name == "" {
		name = textnorm.Compact(strings.TrimSpace(reg.FirstName) + " " + strings.TrimSpace(reg.LastName))
	}
	return partyInfo{
		name:       name,
		vat:        strings.TrimSpace(p.Data.VAT.Code),
		fiscalCode: strings.TrimSpace(p.Data.FiscalCode),
	}
}

func invoiceID(inv model.Invoice) string {
	party := inv.CounterpartyVAT
	if party == "" {
		party = inv.CounterpartyName
	}
	return id.FormatInvoiceID(
		string(inv.Type),
		inv.Number,
		inv.DocumentDate.Format(model.DateFormat),
		inv.AmountDue.StringFixed(2),
		party,
	)
}

// parseDate accepts an ISO date prefix (FatturaPA) or dd/mm/yyyy.
func parseDate(raw string) (time.Time, bool) {
	s := textnorm.Compact(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := isoDatePrefix.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}
	if m := euDate.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[2], m[1])
	}
	return time.Time{}, false
}

func calendarDate(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseAmount reads schema amounts ("1220.00") and tolerates Italian
// formatting ("1.220,00"): dots before a comma are thousands separators.
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, textnorm.Compact(raw))
	if s == "" {
		return decimal.Decimal{}, false
	}
	if last := strings.LastIndex(s, ","); last >= 0 {
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
