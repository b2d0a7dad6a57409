package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func strPtr(s string) *string { return &s }

func TestParseField(t *testing.T) {
	f, err := ParseField(" BookingDate ")
	require.NoError(t, err)
	assert.Equal(t, FieldBookingDate, f)
	assert.Equal(t, "bookingDate", f.String())
	assert.True(t, f.Info().Required)
	assert.False(t, FieldAmount.Info().Required)

	_, err = ParseField("iban")
	assert.Error(t, err)
}

func TestFields_Order(t *testing.T) {
	fields := Fields()
	require.Len(t, fields, NumFields)
	assert.Equal(t, FieldBookingDate, fields[0])
	assert.Equal(t, FieldAccount, fields[NumFields-1])
	assert.Equal(t, FieldInfo{}, Field(-1).Info())
}

func TestFieldMapping_SetClear(t *testing.T) {
	var m FieldMapping
	_, ok := m.Column(FieldAmount)
	assert.False(t, ok)

	m.Set(FieldAmount, "Importo")
	col, ok := m.Column(FieldAmount)
	require.True(t, ok)
	assert.Equal(t, "Importo", col)

	m.Clear(FieldAmount)
	_, ok = m.Column(FieldAmount)
	assert.False(t, ok)

	m.Set(Field(99), "ignored")
	_, ok = m.Column(Field(99))
	assert.False(t, ok)
}

func TestFieldMapping_Map(t *testing.T) {
	var m FieldMapping
	m.Set(FieldBookingDate, "Data")

	raw := m.Map()
	assert.Len(t, raw, NumFields)
	require.NotNil(t, raw["bookingDate"])
	assert.Equal(t, "Data", *raw["bookingDate"])
	assert.Nil(t, raw["amount"])

	back, err := FieldMappingFromMap(raw)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	_, err = FieldMappingFromMap(map[string]*string{"nope": strPtr("x")})
	assert.Error(t, err)
}

func TestFieldMapping_Apply(t *testing.T) {
	var m FieldMapping
	m.Set(FieldBookingDate, "Data")
	m.Set(FieldValueDate, "Valuta")

	require.NoError(t, m.Apply(map[string]*string{
		"valueDate": nil,
		"amount":    strPtr(" Importo "),
	}))

	col, _ := m.Column(FieldBookingDate)
	assert.Equal(t, "Data", col, "untouched")
	_, ok := m.Column(FieldValueDate)
	assert.False(t, ok, "cleared")
	col, _ = m.Column(FieldAmount)
	assert.Equal(t, "Importo", col)

	assert.Error(t, m.Apply(map[string]*string{"saldo": nil}))
}

func TestFieldMapping_YAMLAndJSON(t *testing.T) {
	var m FieldMapping
	m.Set(FieldDebit, "Dare")

	data, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debit: Dare")
	assert.Contains(t, string(data), "credit: null")

	var fromYAML FieldMapping
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, m, fromYAML)

	js, err := json.Marshal(m)
	require.NoError(t, err)
	var fromJSON FieldMapping
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	assert.Equal(t, m, fromJSON)
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, DirectionIn, DirectionOf(decimal.NewFromInt(5)))
	assert.Equal(t, DirectionOut, DirectionOf(decimal.NewFromInt(-5)))
}

func TestInvoiceType(t *testing.T) {
	typ, err := ParseInvoiceType("Ricevuta")
	require.NoError(t, err)
	assert.Equal(t, InvoiceReceived, typ)
	assert.Equal(t, DirectionOut, typ.ExpectedDirection())
	assert.Equal(t, DirectionIn, InvoiceIssued.ExpectedDirection())

	_, err = ParseInvoiceType("nota")
	assert.Error(t, err)
}

func TestInvoice_TargetDate(t *testing.T) {
	doc := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, due, Invoice{DocumentDate: doc, DueDate: due}.TargetDate())
	assert.Equal(t, doc, Invoice{DocumentDate: doc}.TargetDate())
}

func TestRawTable_Value(t *testing.T) {
	table := RawTable{Headers: []string{"Data", "Importo"}}
	rec := Record{Line: 2, Values: []string{"2025-01-10"}}

	assert.Equal(t, 1, table.HeaderIndex("Importo"))
	assert.Equal(t, -1, table.HeaderIndex("Saldo"))
	assert.Equal(t, "2025-01-10", table.Value(rec, "Data"))
	assert.Empty(t, table.Value(rec, "Importo"))
	assert.Empty(t, table.Value(rec, "Saldo"))
}

func TestMovement_JSONDates(t *testing.T) {
	value := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	m := Movement{
		ID:          "row_2",
		BookingDate: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		ValueDate:   &value,
		Amount:      decimal.RequireFromString("-42.50"),
		Direction:   DirectionOut,
		SourceLine:  2,
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bookingDate":"2025-03-11"`)
	assert.Contains(t, string(data), `"valueDate":"2025-03-12"`)
	assert.NotContains(t, string(data), "T00:00:00")

	var got Movement
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m.BookingDate, got.BookingDate)
	require.NotNil(t, got.ValueDate)
	assert.Equal(t, value, *got.ValueDate)
	assert.Equal(t, "row_2", got.ID)
	assert.True(t, m.Amount.Equal(got.Amount))
	assert.Equal(t, 2, got.SourceLine)

	data, err = json.Marshal(Movement{ID: "row_3", BookingDate: m.BookingDate, Amount: m.Amount})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valueDate":null`)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got.ValueDate)

	assert.Error(t, json.Unmarshal([]byte(`{"bookingDate":"11/03/2025"}`), &got))
}

func TestInvoice_JSONDates(t *testing.T) {
	inv := Invoice{
		ID:           "emessa|7|2025-02-10|100.00|na",
		Type:         InvoiceIssued,
		Number:       "7",
		DocumentDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		AmountDue:    decimal.RequireFromString("100.00"),
	}
	data, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dataDocumento":"2025-02-10"`)
	assert.Contains(t, string(data), `"dataScadenza":"2025-03-10"`)
	assert.Contains(t, string(data), `"tipo":"emessa"`)

	var got Invoice
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, inv.DocumentDate, got.DocumentDate)
	assert.Equal(t, inv.DueDate, got.DueDate)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, InvoiceIssued, got.Type)
}
