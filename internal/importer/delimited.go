package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/riconcilia/riconcilia/internal/model"
)

// DefaultFallback decodes statements that are not valid UTF-8. Most
// Italian home-banking exports are Windows-1252.
var DefaultFallback encoding.Encoding = charmap.Windows1252

// candidateDelimiters in tie-break order.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

const delimiterSampleLines = 10

// DelimitedParser parses delimited text statements with an auto-detected
// delimiter.
type DelimitedParser struct {
	// Fallback decodes input that is not valid UTF-8. Nil passes bytes
	// through unchanged.
	Fallback encoding.Encoding
}

// Format returns the parser name.
func (p *DelimitedParser) Format() string { return "delimited" }

// Extensions returns the file extensions this parser accepts.
func (p *DelimitedParser) Extensions() []string { return []string{".csv", ".txt", ".tsv"} }

// Parse reads the whole statement and returns its table.
func (p *DelimitedParser) Parse(r io.Reader) (model.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("reading statement: %w", err)
	}
	text, err := Decode(data, p.Fallback)
	if err != nil {
		return model.RawTable{}, err
	}
	return ParseDelimited(text)
}

// Decode returns data as a string, decoding it with fallback when it is not
// valid UTF-8.
func Decode(data []byte, fallback encoding.Encoding) (string, error) {
	if utf8.Valid(data) || fallback == nil {
		return string(data), nil
	}
	out, err := fallback.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding statement: %w", err)
	}
	return string(out), nil
}

// ParseDelimited splits statement text into normalized headers and records.
// Blank lines are dropped; fewer than two remaining lines fails with
// model.ErrInsufficientData.
func ParseDelimited(text string) (model.RawTable, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return model.RawTable{}, fmt.Errorf("%w: need a header and at least one data line, got %d", model.ErrInsufficientData, len(lines))
	}

	delim := DetectDelimiter(lines)
	headers := normalizeHeaders(SplitLine(lines[0], delim))

	records := make([]model.Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		cells := SplitLine(line, delim)
		values := make([]string, len(headers))
		copy(values, cells)
		records = append(records, model.Record{
			Line:   i + 2,
			Values: values,
		})
	}

	return model.RawTable{
		Headers:   headers,
		Records:   records,
		Delimiter: delim,
	}, nil
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// DetectDelimiter picks the candidate that yields the most fields over the
// first lines. Ties go to the earlier candidate in ; , TAB | order.
func DetectDelimiter(lines []string) rune {
	sample := lines
	if len(sample) > delimiterSampleLines {
		sample = sample[:delimiterSampleLines]
	}

	best := candidateDelimiters[0]
	bestScore := -1
	for _, c := range candidateDelimiters {
		score := 0
		for _, line := range sample {
			score += len(SplitLine(line, c))
		}
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// SplitLine tokenizes one line. Double quotes toggle quoting, a doubled
// quote inside quotes is a literal quote, and each field is trimmed.
func SplitLine(line string, delim rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '"' {
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}
		if c == delim && !inQuotes {
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// normalizeHeaders replaces blank headers with colonna_N and suffixes
// collisions with _2, _3, ...
func normalizeHeaders(raw []string) []string {
	used := make(map[string]bool, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		base := strings.TrimSpace(h)
		if base == "" {
			base = "colonna_" + strconv.Itoa(i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}
