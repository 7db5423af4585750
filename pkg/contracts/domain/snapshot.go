package domain

// RawRow is an untyped input row as handed over by a loader.
// Position is the 1-based row number inside its source.
type RawRow struct {
	Position int               `json:"position"`
	Origin   string            `json:"origin,omitempty"`
	Fields   map[string]string `json:"fields"`
}

// Batch is the full set of raw rows for one source
type Batch struct {
	Source Source   `json:"source"`
	Origin string   `json:"origin,omitempty"`
	Rows   []RawRow `json:"rows"`
}

// Len returns the number of rows, tolerating a nil batch
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Snapshot bundles the three sources of one run. A nil batch means the
// source was absent altogether.
type Snapshot struct {
	HR     *Batch `json:"hr"`
	Roles  *Batch `json:"roles"`
	Status *Batch `json:"status"`
}
