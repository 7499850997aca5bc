package services

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"pharmacy-dashboard/internal/models"
)

const monthLayout = "2006-01"

// Normalize derives the typed columns of t. Each step runs only when its
// source columns exist; cells that fail to parse become null.
func Normalize(t *models.SalesTable) *models.NormalizedTable {
	n := &models.NormalizedTable{Source: t}

	if idx, ok := t.ColumnIndex(models.ColumnDate); ok {
		n.Dates = make([]models.Nullable[time.Time], len(t.Rows))
		for i, row := range t.Rows {
			n.Dates[i] = ParseDate(row[idx])
		}
	}

	if idx, ok := t.ColumnIndex(models.ColumnQuantity); ok {
		n.Quantities = make([]models.Nullable[decimal.Decimal], len(t.Rows))
		for i, row := range t.Rows {
			n.Quantities[i] = ParseNumber(row[idx])
		}
	}

	if priceIdx, ok := t.ColumnIndex(models.ColumnPrice); ok && n.Quantities != nil {
		n.Revenue = make([]models.Nullable[decimal.Decimal], len(t.Rows))
		for i, row := range t.Rows {
			qty, price := n.Quantities[i], ParseNumber(row[priceIdx])
			if !qty.Valid || !price.Valid {
				continue
			}
			if r := qty.Value.Mul(price.Value); finite(r) {
				n.Revenue[i] = models.Valid(r)
			}
		}
	}

	if n.Dates != nil && n.Revenue != nil {
		n.Months = make([]models.Nullable[string], len(t.Rows))
		for i, d := range n.Dates {
			if d.Valid {
				n.Months[i] = models.Valid(d.Value.Format(monthLayout))
			}
		}
	}

	return n
}

// ParseDate accepts the common date layouts found in spreadsheet exports.
// Ambiguous slash dates are read month first; values without a zone are UTC.
func ParseDate(s string) models.Nullable[time.Time] {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Nullable[time.Time]{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return models.Nullable[time.Time]{}
	}
	return models.Valid(t)
}

// ParseNumber reads a plain decimal cell. Values outside the float64 range
// are null like any other unparseable cell, since charts and JSON carry floats.
func ParseNumber(s string) models.Nullable[decimal.Decimal] {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Nullable[decimal.Decimal]{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !finite(d) {
		return models.Nullable[decimal.Decimal]{}
	}
	return models.Valid(d)
}

func finite(d decimal.Decimal) bool {
	f := d.InexactFloat64()
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
