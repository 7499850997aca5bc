package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known column names. Matching is exact and case-sensitive.
const (
	ColumnProduct  = "Product"
	ColumnQuantity = "Quantity"
	ColumnPrice    = "Price"
	ColumnDate     = "Date"
	ColumnRevenue  = "Revenue"
	ColumnMonth    = "Month"
)

// SalesTable is a parsed upload. It is never mutated after loading; every
// row has exactly len(Columns) cells.
type SalesTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *SalesTable) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return -1, false
	}
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

func (t *SalesTable) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Head returns the first n rows, sharing the underlying cells.
func (t *SalesTable) Head(n int) [][]string {
	if t == nil || n <= 0 {
		return [][]string{}
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

type Nullable[T any] struct {
	Value T
	Valid bool
}

func Valid[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

// NormalizedTable carries the columns derived from a SalesTable. A nil
// derived slice means the step producing it was skipped.
type NormalizedTable struct {
	Source     *SalesTable
	Dates      []Nullable[time.Time]
	Quantities []Nullable[decimal.Decimal]
	Revenue    []Nullable[decimal.Decimal]
	Months     []Nullable[string]
}

// FilteredView is a row subset of the source table. Indices identify rows by
// position in SalesTable.Rows.
type FilteredView struct {
	Indices []int      `json:"indices"`
	Rows    [][]string `json:"rows"`
}

func (v FilteredView) Len() int {
	return len(v.Rows)
}
