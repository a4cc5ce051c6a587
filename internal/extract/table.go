package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a header-indexed CSV reader. Every cell is a string; absent
// columns and missing-marker values read as "".
type Table struct {
	reader  *csv.Reader
	columns map[string]int
	missing map[string]struct{}
	row     []string
	line    int
	skipped int
}

// NewTable reads the header row of r. Missing markers are cell values that
// should read as "".
func NewTable(r io.Reader, missingMarkers []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty table: no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{
		reader:  cr,
		columns: make(map[string]int, len(header)),
		missing: make(map[string]struct{}, len(missingMarkers)),
	}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}
	for _, m := range missingMarkers {
		t.missing[m] = struct{}{}
	}
	return t, nil
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// HasAny reports whether the header contains at least one of names.
func (t *Table) HasAny(names ...string) bool {
	for _, n := range names {
		if t.HasColumn(n) {
			return true
		}
	}
	return false
}

// Next advances to the next row. Rows the CSV parser rejects are counted and
// skipped. It returns false at end of input or on an I/O error (see Err).
func (t *Table) Next() (bool, error) {
	for {
		row, err := t.reader.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				t.skipped++
				continue
			}
			return false, err
		}
		t.row = row
		t.line, _ = t.reader.FieldPos(0)
		return true, nil
	}
}

// Get returns the current row's value for column, or "" when the column is
// absent, the row is short, or the value is a missing marker.
func (t *Table) Get(column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(t.row) {
		return ""
	}
	v := strings.TrimSpace(t.row[i])
	if _, miss := t.missing[v]; miss {
		return ""
	}
	return v
}

// Line returns the input line of the current row.
func (t *Table) Line() int {
	return t.line
}

// Skipped returns how many unparseable rows were dropped.
func (t *Table) Skipped() int {
	return t.skipped
}
