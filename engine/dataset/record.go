// Package dataset provides the tabular record model shared by the scraper,
// the deduplicating ingestor, and the feature pipeline. A Table is an ordered
// sequence of records plus the ordered union of every column ever seen;
// records are keyed by an opaque string id.
package dataset

import "sort"

// Record is one scraped item. ID is the dedup key; Fields holds every other
// column as opaque payload that must be preserved unchanged.
type Record struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Get returns the value of a payload column, or "" if absent.
func (r Record) Get(col string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[col]
}

// Table is an ordered collection of records. Columns tracks the ordered
// union of payload column names (the id column is implicit and always first
// on disk). New columns append to the right; rows missing a column
// serialize as empty cells.
type Table struct {
	Columns []string
	Rows    []Record

	colSet map[string]struct{}
}

// NewTable creates an empty table with the given initial payload columns.
func NewTable(cols ...string) *Table {
	t := &Table{colSet: make(map[string]struct{})}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// AddColumn appends a payload column to the union if not already present.
func (t *Table) AddColumn(name string) {
	if t.colSet == nil {
		t.rebuildColSet()
	}
	if name == "id" {
		return
	}
	if _, ok := t.colSet[name]; ok {
		return
	}
	t.colSet[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

// HasColumn reports whether the payload column is part of the union.
func (t *Table) HasColumn(name string) bool {
	if t.colSet == nil {
		t.rebuildColSet()
	}
	_, ok := t.colSet[name]
	return ok
}

func (t *Table) rebuildColSet() {
	t.colSet = make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		t.colSet[c] = struct{}{}
	}
}

// Append adds a record, extending the column union with any unseen field
// names. Unseen names are added in sorted order so output is deterministic.
func (t *Table) Append(rec Record) {
	var unseen []string
	for k := range rec.Fields {
		if k != "id" && !t.HasColumn(k) {
			unseen = append(unseen, k)
		}
	}
	sort.Strings(unseen)
	for _, c := range unseen {
		t.AddColumn(c)
	}
	t.Rows = append(t.Rows, rec)
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Rows) }

// IDSet returns the set of all record ids in the table.
func (t *Table) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		set[r.ID] = struct{}{}
	}
	return set
}

// DedupByID removes records whose id was already seen earlier in the table,
// keeping the first occurrence. Returns how many rows were dropped.
func (t *Table) DedupByID() int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if _, dup := seen[r.ID]; dup {
			dropped++
			continue
		}
		seen[r.ID] = struct{}{}
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// Set assigns a cell value on row i, extending the column union if needed.
func (t *Table) Set(i int, col, val string) {
	t.AddColumn(col)
	if t.Rows[i].Fields == nil {
		t.Rows[i].Fields = make(map[string]string)
	}
	t.Rows[i].Fields[col] = val
}
