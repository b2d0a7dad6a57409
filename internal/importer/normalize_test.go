package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riconcilia/riconcilia/internal/model"
)

func mustParse(t *testing.T, text string) model.RawTable {
	t.Helper()
	table, err := ParseDelimited(text)
	require.NoError(t, err)
	return table
}

func mapping(pairs map[model.Field]string) model.FieldMapping {
	var m model.FieldMapping
	for f, h := range pairs {
		m.Set(f, h)
	}
	return m
}

func TestNormalize_Testdata(t *testing.T) {
	st, err := ImportStatementFile(DefaultRegistry(), "../../testdata/estratto_conto.csv")
	require.NoError(t, err)

	res := Normalize(st.Table, st.SuggestedMapping)
	assert.Equal(t, NormalizeStats{TotalRows: 5, ImportedRows: 2, ErrorRows: 2, DuplicateRows: 1}, res.Stats)
	require.Len(t, res.Movements, 2)

	in := res.Movements[0]
	assert.Equal(t, "row_2", in.ID)
	assert.Equal(t, "2025-03-10", in.BookingDate.Format(model.DateFormat))
	require.NotNil(t, in.ValueDate)
	assert.Equal(t, "1220.00", in.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionIn, in.Direction)
	assert.Equal(t, "48", in.CBICausale)
	assert.Equal(t, "CRO 1234", in.Reference)
	assert.Equal(t, "Rossi Srl", in.Counterparty)
	assert.Equal(t, 2, in.SourceLine)

	out := res.Movements[1]
	assert.Equal(t, "-450.00", out.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionOut, out.Direction)
	assert.Empty(t, out.CBICausale)

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, 4, res.Duplicates[0].Row)
	assert.ErrorIs(t, res.Duplicates[0], model.ErrDuplicateRow)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.Errors[0].Row)
	assert.ErrorIs(t, res.Errors[0], model.ErrInvalidDate)
	assert.Equal(t, 6, res.Errors[1].Row)
	assert.ErrorIs(t, res.Errors[1], model.ErrInvalidAmount)
}

func TestNormalize_EuropeanAmounts(t *testing.T) {
	table := mustParse(t, "Data;Importo\n2025-01-10;1.234,56\n2025-01-11;(50,00)\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldAmount:      "Importo",
	}))
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "1234.56", res.Movements[0].Amount.StringFixed(2))
	assert.Equal(t, "-50.00", res.Movements[1].Amount.StringFixed(2))
	assert.Equal(t, model.DirectionOut, res.Movements[1].Direction)
}

func TestNormalize_MissingBookingDateGate(t *testing.T) {
	texts := []string{
		"Data;Importo\n2025-01-10;10\n2025-01-11;20\n",
		"Data;Importo\nnot a date;zero\n",
	}
	for _, text := range texts {
		table := mustParse(t, text)
		res := Normalize(table, mapping(map[model.Field]string{model.FieldAmount: "Importo"}))

		assert.Empty(t, res.Movements)
		assert.Empty(t, res.Duplicates)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 0, res.Errors[0].Row)
		assert.ErrorIs(t, res.Errors[0], model.ErrMappingIncomplete)
		assert.Equal(t, len(table.Records), res.Stats.ErrorRows)
		assert.Equal(t, 0, res.Stats.ImportedRows)
	}
}

func TestNormalize_MissingAmountGate(t *testing.T) {
	table := mustParse(t, "Data;Importo\n2025-01-10;10\n")
	res := Normalize(table, mapping(map[model.Field]string{model.FieldBookingDate: "Data"}))
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], model.ErrMappingIncomplete)
	assert.Contains(t, res.Errors[0].Reason, "amount or debit/credit")
}

func TestNormalize_MappedHeaderNotInTable(t *testing.T) {
	table := mustParse(t, "Data;Importo\n2025-01-10;10\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data operazione",
		model.FieldAmount:      "Importo",
	}))
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], model.ErrMappingIncomplete)
}

func TestNormalize_Deduplication(t *testing.T) {
	table := mustParse(t, "Data;Importo;Rif;Descrizione\n"+
		"2025-01-10;10,00;ABC;Bonifico\n"+
		"10/01/2025;10,004;abc;BONIFICO\n"+
		"2025-01-10;10,00;ABC;Altro\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldAmount:      "Importo",
		model.FieldReference:   "Rif",
		model.FieldDescription: "Descrizione",
	}))
	require.Len(t, res.Movements, 2)
	assert.Equal(t, "row_2", res.Movements[0].ID)
	assert.Equal(t, "row_4", res.Movements[1].ID)
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, 3, res.Duplicates[0].Row)
	assert.Empty(t, res.Errors)
}

func TestNormalize_DebitCredit(t *testing.T) {
	table := mustParse(t, "Data;Dare;Avere\n"+
		"2025-01-10;;100,00\n"+
		"2025-01-11;-30,00;\n"+
		"2025-01-12;20,00;50,00\n"+
		"2025-01-13;;\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldDebit:       "Dare",
		model.FieldCredit:      "Avere",
	}))
	require.Len(t, res.Movements, 3)
	assert.Equal(t, "100.00", res.Movements[0].Amount.StringFixed(2))
	assert.Equal(t, "-30.00", res.Movements[1].Amount.StringFixed(2))
	assert.Equal(t, "30.00", res.Movements[2].Amount.StringFixed(2))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 5, res.Errors[0].Row)
	assert.ErrorIs(t, res.Errors[0], model.ErrInvalidAmount)
}

func TestNormalize_AmountColumnWinsOverDebitCredit(t *testing.T) {
	table := mustParse(t, "Data;Importo;Dare\n2025-01-10;abc;10\n2025-01-11;;10\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldAmount:      "Importo",
		model.FieldDebit:       "Dare",
	}))
	// An unparsable amount does not fall back; an empty one does.
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, "-10.00", res.Movements[0].Amount.StringFixed(2))
}

func TestNormalize_ZeroAmountRejected(t *testing.T) {
	table := mustParse(t, "Data;Importo\n2025-01-10;0,00\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldAmount:      "Importo",
	}))
	assert.Empty(t, res.Movements)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], model.ErrInvalidAmount)
}

func TestNormalize_CBIExtraction(t *testing.T) {
	table := mustParse(t, "Data;Importo;Descrizione;Rif;CBI\n"+
		"2025-01-10;10;Bonifico causale CBI: 48;;\n"+
		"2025-01-11;11;Bonifico;codice cbi RF18;\n"+
		"2025-01-12;12;cbi 99;;x-27\n"+
		"2025-01-13;13;nessun codice;;\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate: "Data",
		model.FieldAmount:      "Importo",
		model.FieldDescription: "Descrizione",
		model.FieldReference:   "Rif",
		model.FieldCBICausale:  "CBI",
	}))
	require.Len(t, res.Movements, 4)
	assert.Equal(t, "48", res.Movements[0].CBICausale)
	assert.Equal(t, "RF18", res.Movements[1].CBICausale)
	assert.Equal(t, "X27", res.Movements[2].CBICausale)
	assert.Equal(t, "", res.Movements[3].CBICausale)
}

func TestNormalize_OptionalFields(t *testing.T) {
	table := mustParse(t, "Data;Valuta;Importo;Saldo;IBAN;Beneficiario\n"+
		"2025-01-10;2025-01-12;10;1.000,50;IT60X0542811101000000123456;  Mario   Rossi \n"+
		"2025-01-11;;-5;;;\n")
	res := Normalize(table, mapping(map[model.Field]string{
		model.FieldBookingDate:  "Data",
		model.FieldValueDate:    "Valuta",
		model.FieldAmount:       "Importo",
		model.FieldBalance:      "Saldo",
		model.FieldAccount:      "IBAN",
		model.FieldCounterparty: "Beneficiario",
	}))
	require.Len(t, res.Movements, 2)

	first := res.Movements[0]
	require.NotNil(t, first.ValueDate)
	assert.Equal(t, "2025-01-12", first.ValueDate.Format(model.DateFormat))
	require.NotNil(t, first.Balance)
	assert.Equal(t, "1000.50", first.Balance.StringFixed(2))
	assert.Equal(t, "Mario Rossi", first.Counterparty)
	assert.Equal(t, "IT60X0542811101000000123456", first.Account)

	second := res.Movements[1]
	assert.Nil(t, second.ValueDate)
	assert.Nil(t, second.Balance)
}
