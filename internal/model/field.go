package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Field is a canonical bank statement column.
type Field int

// Canonical fields, in inference order. Earlier fields get first claim on
// ambiguous headers.
const (
	FieldBookingDate Field = iota
	FieldValueDate
	FieldAmount
	FieldDebit
	FieldCredit
	FieldDescription
	FieldCBICausale
	FieldReference
	FieldCounterparty
	FieldBalance
	FieldAccount

	fieldCount
)

// NumFields is the number of canonical fields.
const NumFields = int(fieldCount)

// FieldInfo describes a canonical field.
type FieldInfo struct {
	Key      string
	Label    string
	Required bool
}

var fieldCatalog = [fieldCount]FieldInfo{
	FieldBookingDate:  {Key: "bookingDate", Label: "Data contabile", Required: true},
	FieldValueDate:    {Key: "valueDate", Label: "Data valuta"},
	FieldAmount:       {Key: "amount", Label: "Importo (colonna unica)"},
	FieldDebit:        {Key: "debit", Label: "Addebito (-)"},
	FieldCredit:       {Key: "credit", Label: "Accredito (+)"},
	FieldDescription:  {Key: "description", Label: "Causale"},
	FieldCBICausale:   {Key: "cbiCausale", Label: "Causale CBI"},
	FieldReference:    {Key: "reference", Label: "Riferimento"},
	FieldCounterparty: {Key: "counterparty", Label: "Controparte"},
	FieldBalance:      {Key: "balance", Label: "Saldo"},
	FieldAccount:      {Key: "account", Label: "Conto / IBAN"},
}

// Fields returns every canonical field in inference order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Info returns the catalog entry for f.
func (f Field) Info() FieldInfo {
	if f < 0 || f >= fieldCount {
		return FieldInfo{}
	}
	return fieldCatalog[f]
}

// Key returns the stable camelCase key, e.g. "bookingDate".
func (f Field) Key() string { return f.Info().Key }

func (f Field) String() string { return f.Key() }

// ParseField resolves a field key (case-insensitive).
func ParseField(key string) (Field, error) {
	for i, info := range fieldCatalog {
		if strings.EqualFold(info.Key, strings.TrimSpace(key)) {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", key)
}

// FieldMapping maps each canonical field to a header name. An empty
// string means unmapped.
type FieldMapping struct {
	columns [fieldCount]string
}

// Column returns the header mapped to f.
func (m FieldMapping) Column(f Field) (string, bool) {
	if f < 0 || f >= fieldCount {
		return "", false
	}
	c := m.columns[f]
	return c, c != ""
}

// Set maps f to header. An empty header clears the field.
func (m *FieldMapping) Set(f Field, header string) {
	if f < 0 || f >= fieldCount {
		return
	}
	m.columns[f] = header
}

// Clear unmaps f.
func (m *FieldMapping) Clear(f Field) { m.Set(f, "") }

// Map returns the mapping keyed by field key; unmapped fields are nil.
func (m FieldMapping) Map() map[string]*string {
	out := make(map[string]*string, fieldCount)
	for i := range m.columns {
		key := fieldCatalog[i].Key
		if m.columns[i] == "" {
			out[key] = nil
			continue
		}
		c := m.columns[i]
		out[key] = &c
	}
	return out
}

// FieldMappingFromMap builds a mapping from key -> header pairs. Unknown
// keys are rejected.
func FieldMappingFromMap(in map[string]*string) (FieldMapping, error) {
	var m FieldMapping
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return FieldMapping{}, err
		}
		if v := in[k]; v != nil {
			m.Set(f, strings.TrimSpace(*v))
		}
	}
	return m, nil
}

// Apply overrides the fields named in raw: a header sets the field, nil
// clears it. Fields absent from raw are left alone.
func (m *FieldMapping) Apply(raw map[string]*string) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return err
		}
		if v := raw[k]; v != nil {
			m.Set(f, strings.TrimSpace(*v))
		} else {
			m.Clear(f)
		}
	}
	return nil
}

// MarshalYAML encodes the mapping as key -> header|null.
func (m FieldMapping) MarshalYAML() (any, error) {
	return m.Map(), nil
}

// UnmarshalYAML decodes key -> header|null.
func (m *FieldMapping) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]*string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := FieldMappingFromMap(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON encodes the mapping as key -> header|null.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// UnmarshalJSON decodes key -> header|null.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FieldMappingFromMap(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
