package models

import "slices"

// Table is an ordered set of typed records plus the column names present in
// the source file. A missing source is represented by a table with no
// columns and no rows, never by a nil table.
type Table[T any] struct {
	Columns []string
	Rows    []T
}

func EmptyTable[T any]() *Table[T] {
	return &Table[T]{Columns: []string{}, Rows: []T{}}
}

func NewTable[T any](columns []string, rows []T) *Table[T] {
	if columns == nil {
		columns = []string{}
	}
	if rows == nil {
		rows = []T{}
	}
	return &Table[T]{Columns: columns, Rows: rows}
}

func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table[T]) IsEmpty() bool {
	return t.Len() == 0
}

func (t *Table[T]) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.Columns, name)
}

// Clone copies the row slice so callers can rewrite records without touching
// the receiver. Records are value types, so a shallow copy is enough.
func (t *Table[T]) Clone() *Table[T] {
	if t == nil {
		return EmptyTable[T]()
	}
	return &Table[T]{
		Columns: slices.Clone(t.Columns),
		Rows:    slices.Clone(t.Rows),
	}
}
