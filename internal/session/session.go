// Package session persists reconciliation snapshots so a run can be
// reviewed and resumed later.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/riconcilia/riconcilia/internal/decisions"
	"github.com/riconcilia/riconcilia/internal/fattura"
	"github.com/riconcilia/riconcilia/internal/importer"
	"github.com/riconcilia/riconcilia/internal/matching"
	"github.com/riconcilia/riconcilia/internal/model"
)

// Version is the payload format written by this package.
const Version = 1

// StorageLocal names the file-backed storage tier.
const StorageLocal = "local"

// StatementInfo summarizes the imported statement with a few raw rows.
type StatementInfo struct {
	FileName  string     `json:"fileName"`
	Delimiter string     `json:"delimiter"`
	Headers   []string   `json:"headers"`
	Preview   [][]string `json:"preview"`
	TotalRows int        `json:"totalRows"`
}

// Snapshot is the state of one reconciliation run.
type Snapshot struct {
	Statement      *StatementInfo                `json:"statement,omitempty"`
	Mapping        model.FieldMapping            `json:"mapping"`
	Movements      []model.Movement              `json:"movements"`
	MovementStats  importer.NormalizeStats       `json:"movementStats"`
	Invoices       []model.Invoice               `json:"invoices"`
	InvoiceImports map[string]fattura.ImportStats `json:"invoiceImports,omitempty"`
	Options        matching.Options              `json:"options"`
	Match          *matching.Result              `json:"match,omitempty"`
	Decisions      map[string]decisions.Decision `json:"decisions,omitempty"`
}

// Payload wraps a snapshot with save metadata.
type Payload struct {
	Version   int       `json:"version"`
	SavedAt   time.Time `json:"savedAt"`
	SessionID string    `json:"sessionId"`
	Storage   string    `json:"storage"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// NewPayload stamps snap with a fresh session ID and the given time.
func NewPayload(snap Snapshot, now time.Time) Payload {
	return Payload{
		Version:   Version,
		SavedAt:   now.UTC(),
		SessionID: uuid.NewString(),
		Storage:   StorageLocal,
		Snapshot:  snap,
	}
}

// NewStatementInfo summarizes st, keeping at most previewRows raw rows.
func NewStatementInfo(st *importer.Statement, previewRows int) *StatementInfo {
	n := min(max(previewRows, 0), len(st.Table.Records))
	preview := make([][]string, n)
	for i := range n {
		preview[i] = st.Table.Records[i].Values
	}
	return &StatementInfo{
		FileName:  st.FileName,
		Delimiter: string(st.Table.Delimiter),
		Headers:   st.Table.Headers,
		Preview:   preview,
		TotalRows: len(st.Table.Records),
	}
}

// Encode writes p as indented JSON.
func Encode(w io.Writer, p Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return nil
}

// Decode reads a payload and checks its version.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if p.Version != Version {
		return nil, fmt.Errorf("unsupported session version %d", p.Version)
	}
	if p.Storage == "" {
		p.Storage = StorageLocal
	}
	return &p, nil
}
