package model

// Record is one data row of a delimited statement, with values in header
// order.
type Record struct {
	Line   int      // 1-based source line; the header is line 1
	Values []string // one value per header, missing cells are ""
}

// RawTable is the schema-agnostic result of parsing a statement.
type RawTable struct {
	Headers   []string
	Records   []Record
	Delimiter rune
}

// HeaderIndex returns the position of header, or -1.
func (t RawTable) HeaderIndex(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Value returns the cell of r under header, or "" when absent.
func (t RawTable) Value(r Record, header string) string {
	i := t.HeaderIndex(header)
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}
