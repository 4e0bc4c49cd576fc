package reader

import (
	apperrors "rxcli/internal/errors"
)

// Row is one logical record. Fields are positional; Value resolves a column
// name against the header of the reader that produced the row.
type Row struct {
	fields  []string
	columns map[string]int
	width   int
	line    int64
}

// NewRow builds a Row over fields using columns for name resolution.
// It is mostly useful for tests of RowHandler implementations.
func NewRow(fields []string, columns map[string]int) Row {
	return Row{fields: fields, columns: columns, width: len(columns)}
}

// Fields returns the positional fields of the row.
func (r Row) Fields() []string { return r.fields }

// Len returns the number of fields in the row.
func (r Row) Len() int { return len(r.fields) }

// HeaderLen returns the number of columns in the producing reader's header.
func (r Row) HeaderLen() int { return r.width }

// Line returns the running line number at which the row was produced.
func (r Row) Line() int64 { return r.line }

// Value returns the field for the named column. A known column that is
// beyond the end of a short row yields an empty string.
func (r Row) Value(name string) (string, error) {
	idx, ok := r.columns[name]
	if !ok {
		return "", apperrors.UnknownColumn(name)
	}
	if idx >= len(r.fields) {
		return "", nil
	}
	return r.fields[idx], nil
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.columns))
	for name, idx := range r.columns {
		if idx < len(r.fields) {
			m[name] = r.fields[idx]
		} else {
			m[name] = ""
		}
	}
	return m
}

// RowHandler consumes rows one at a time.
type RowHandler interface {
	Ingest(row Row) error
}

// HandlerFunc adapts a plain function to RowHandler.
type HandlerFunc func(row Row) error

// Ingest calls f(row).
func (f HandlerFunc) Ingest(row Row) error { return f(row) }
