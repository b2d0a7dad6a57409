// Package decisions records user verdicts on match suggestions. Decisions
// live beside the suggestions, keyed by suggestion ID, in an append-only
// CSV log.
package decisions

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riconcilia/riconcilia/internal/id"
)

// Decision is the state of a suggestion.
type Decision string

const (
	Pending   Decision = "pending"
	Confirmed Decision = "confirmed"
	Rejected  Decision = "rejected"
)

// ParseDecision validates s.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case Pending, Confirmed, Rejected:
		return d, nil
	}
	return "", fmt.Errorf("invalid decision %q (want pending, confirmed or rejected)", s)
}

// Entry is one row in the decision log.
type Entry struct {
	Timestamp    time.Time
	SuggestionID string
	Decision     Decision
	Note         string
}

// Header is the CSV header of a decision log.
const Header = "timestamp,suggestion_id,decision,note"

const (
	numFields       = 4
	colTimestamp    = 0
	colSuggestionID = 1
	colDecision     = 2
	colNote         = 3
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colSuggestionID] = e.SuggestionID
	row[colDecision] = string(e.Decision)
	row[colNote] = e.Note
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	if _, _, err := id.SplitSuggestionID(record[colSuggestionID]); err != nil {
		return Entry{}, err
	}
	d, err := ParseDecision(record[colDecision])
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Timestamp:    ts,
		SuggestionID: record[colSuggestionID],
		Decision:     d,
		Note:         record[colNote],
	}, nil
}

// Append writes entries to the log at path, creating the file and header
// if needed.
func Append(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating decision log dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening decision log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries in the log at path. A missing file yields no
// entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening decision log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading decision log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
