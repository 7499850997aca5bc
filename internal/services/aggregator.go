package services

import (
	"math"
	"math/big"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"pharmacy-dashboard/internal/models"
)

// Aggregate reduces the full normalized table. Reductions whose source
// columns are missing are skipped and flagged false in the result.
func Aggregate(n *models.NormalizedTable) models.Aggregates {
	var agg models.Aggregates

	if idx, ok := n.Source.ColumnIndex(models.ColumnProduct); ok && n.Quantities != nil {
		agg.TopProducts = topProducts(n.Source.Rows, idx, n.Quantities)
		agg.HasTopProducts = true
	}

	if n.Months != nil {
		agg.MonthlySales = monthlySales(n.Months, n.Revenue)
		agg.HasMonthlySales = true
	}

	if n.Revenue != nil {
		agg.TotalRevenue = sumValid(n.Revenue)
		agg.HasRevenue = true
	}

	return agg
}

type productTotal struct {
	product string
	total   decimal.Decimal
}

func topProducts(rows [][]string, productIdx int, quantities []models.Nullable[decimal.Decimal]) []models.ProductQuantity {
	groups := make([]productTotal, 0)
	position := make(map[string]int)

	for i, row := range rows {
		p := row[productIdx]
		if p == "" {
			continue
		}
		pos, ok := position[p]
		if !ok {
			pos = len(groups)
			position[p] = pos
			groups = append(groups, productTotal{product: p})
		}
		if q := quantities[i]; q.Valid {
			groups[pos].total = groups[pos].total.Add(q.Value)
		}
	}

	// Stable so equal totals keep first-appearance order.
	slices.SortStableFunc(groups, func(a, b productTotal) int {
		return b.total.Cmp(a.total)
	})

	result := make([]models.ProductQuantity, len(groups))
	for i, g := range groups {
		result[i] = models.ProductQuantity{Product: g.product, Quantity: Float(g.total)}
	}
	return result
}

func monthlySales(months []models.Nullable[string], revenue []models.Nullable[decimal.Decimal]) []models.MonthlyRevenue {
	totals := make(map[string]decimal.Decimal)

	for i, m := range months {
		if !m.Valid {
			continue
		}
		sum := totals[m.Value]
		if r := revenue[i]; r.Valid {
			sum = sum.Add(r.Value)
		}
		totals[m.Value] = sum
	}

	result := make([]models.MonthlyRevenue, 0, len(totals))
	for month, sum := range totals {
		result = append(result, models.MonthlyRevenue{Month: month, Revenue: Float(sum)})
	}
	slices.SortFunc(result, func(a, b models.MonthlyRevenue) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

func sumValid(values []models.Nullable[decimal.Decimal]) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		if v.Valid {
			sum = sum.Add(v.Value)
		}
	}
	return sum
}

// Float converts d for charts and JSON. Sums too large for float64 saturate
// at the largest finite value instead of becoming infinite.
func Float(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}

// FormatCurrency renders d as dollars with thousands separators and two
// decimals: $1,234.50.
// The digits come from the decimal itself, so totals beyond the float64 and
// int64 ranges keep their exact value.
func FormatCurrency(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if rest, ok := strings.CutPrefix(fixed, "-"); ok {
		sign, fixed = "-", rest
	}
	whole, cents, _ := strings.Cut(fixed, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return "$" + sign + fixed
	}
	return "$" + sign + humanize.BigComma(n) + "." + cents
}
