package decisions

// Table holds the current decision per suggestion ID. Suggestions without
// an entry are pending.
type Table struct {
	state map[string]Entry
}

// NewTable folds entries in order; a later entry for the same suggestion
// replaces an earlier one.
func NewTable(entries []Entry) *Table {
	t := &Table{state: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		t.Set(e)
	}
	return t
}

// Load reads the log at path into a Table.
func Load(path string) (*Table, error) {
	entries, err := Read(path)
	if err != nil {
		return nil, err
	}
	return NewTable(entries), nil
}

// Set records e as the current decision for its suggestion.
func (t *Table) Set(e Entry) {
	t.state[e.SuggestionID] = e
}

// Get returns the decision for suggestionID, Pending when unknown.
func (t *Table) Get(suggestionID string) Decision {
	if e, ok := t.state[suggestionID]; ok {
		return e.Decision
	}
	return Pending
}

// Entry returns the latest entry for suggestionID.
func (t *Table) Entry(suggestionID string) (Entry, bool) {
	e, ok := t.state[suggestionID]
	return e, ok
}

// Snapshot returns suggestion ID -> decision for every recorded suggestion.
func (t *Table) Snapshot() map[string]Decision {
	out := make(map[string]Decision, len(t.state))
	for k, e := range t.state {
		out[k] = e.Decision
	}
	return out
}

// Counts tallies the decisions for ids.
func (t *Table) Counts(ids []string) map[Decision]int {
	out := map[Decision]int{Pending: 0, Confirmed: 0, Rejected: 0}
	for _, id := range ids {
		out[t.Get(id)]++
	}
	return out
}
