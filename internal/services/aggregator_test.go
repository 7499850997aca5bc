package services

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-dashboard/internal/models"
)

const exampleCSV = `Product,Quantity,Price,Date
A,2,10.0,2024-01-05
B,1,5.0,2024-01-20
A,3,10.0,2024-02-01
`

func TestAggregate_Example(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, exampleCSV)))

	require.True(t, agg.HasRevenue)
	assert.Equal(t, "$65.00", FormatCurrency(agg.TotalRevenue))

	require.True(t, agg.HasTopProducts)
	assert.Equal(t, []models.ProductQuantity{
		{Product: "A", Quantity: 5},
		{Product: "B", Quantity: 1},
	}, agg.TopProducts)

	require.True(t, agg.HasMonthlySales)
	assert.Equal(t, []models.MonthlyRevenue{
		{Month: "2024-01", Revenue: 25},
		{Month: "2024-02", Revenue: 30},
	}, agg.MonthlySales)
}

func TestAggregate_MissingPrice(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, "Product,Quantity,Date\nA,2,2024-01-05\nB,1,2024-01-20\n")))

	assert.False(t, agg.HasRevenue)
	assert.False(t, agg.HasMonthlySales)
	assert.Empty(t, agg.MonthlySales)
	assert.True(t, agg.HasTopProducts)
}

func TestAggregate_MissingProduct(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, "Quantity,Price,Date\n2,1,2024-01-05\n")))

	assert.False(t, agg.HasTopProducts)
	assert.True(t, agg.HasRevenue)
	assert.True(t, agg.HasMonthlySales)
}

func TestAggregate_TopProductsTiesKeepFirstAppearance(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, `Product,Quantity
C,2
A,1
B,5
A,1
D,2
`)))

	products := make([]string, len(agg.TopProducts))
	for i, p := range agg.TopProducts {
		products[i] = p.Product
	}
	assert.Equal(t, []string{"B", "C", "A", "D"}, products)
}

func TestAggregate_NullCells(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, `Product,Quantity,Price,Date
A,x,10,2024-01-05
,4,1,2024-01-06
B,1,2,bad date
A,2,3,2024-02-01
`)))

	assert.Equal(t, []models.ProductQuantity{
		{Product: "A", Quantity: 2},
		{Product: "B", Quantity: 1},
	}, agg.TopProducts, "empty product skipped, null quantity counts as nothing")

	assert.Equal(t, []models.MonthlyRevenue{
		{Month: "2024-01", Revenue: 4},
		{Month: "2024-02", Revenue: 6},
	}, agg.MonthlySales, "rows without a month are left out")

	assert.True(t, agg.TotalRevenue.Equal(decimal.NewFromInt(12)), "total covers every valid revenue cell")
}

func TestAggregate_MonthsSortChronologically(t *testing.T) {
	agg := Aggregate(Normalize(mustLoad(t, `Product,Quantity,Price,Date
A,1,1,2024-11-01
A,1,2,2023-12-31
A,1,3,2024-02-10
A,1,4,2024-11-30
`)))

	assert.Equal(t, []models.MonthlyRevenue{
		{Month: "2023-12", Revenue: 2},
		{Month: "2024-02", Revenue: 3},
		{Month: "2024-11", Revenue: 5},
	}, agg.MonthlySales)
}

func randomSalesCSV(r *rand.Rand, rows int) string {
	var b strings.Builder
	b.WriteString("Product,Quantity,Price,Date,Branch\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "P%d,%d,%d.%02d,2024-%02d-%02d,north\n",
			r.Intn(12), r.Intn(20)+1, r.Intn(50), r.Intn(100), r.Intn(12)+1, r.Intn(28)+1)
	}
	return b.String()
}

func TestAggregate_Lossless(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		table := mustLoad(t, randomSalesCSV(r, 1+r.Intn(300)))
		n := Normalize(table)
		agg := Aggregate(n)

		var qtyFromGroups, revenueFromMonths float64
		for _, p := range agg.TopProducts {
			qtyFromGroups += p.Quantity
		}
		for _, m := range agg.MonthlySales {
			revenueFromMonths += m.Revenue
		}

		totalQty := sumValid(n.Quantities)
		assert.InDelta(t, totalQty.InexactFloat64(), qtyFromGroups, 1e-6)
		assert.InDelta(t, agg.TotalRevenue.InexactFloat64(), revenueFromMonths, 1e-6)

		for i := 1; i < len(agg.TopProducts); i++ {
			assert.GreaterOrEqual(t, agg.TopProducts[i-1].Quantity, agg.TopProducts[i].Quantity)
		}
	}
}

func TestFloat_Saturates(t *testing.T) {
	huge := decimal.RequireFromString("1e308")
	assert.Equal(t, math.MaxFloat64, Float(huge.Add(huge)))
	assert.Equal(t, -math.MaxFloat64, Float(huge.Add(huge).Neg()))
	assert.Equal(t, 12.5, Float(decimal.RequireFromString("12.5")))
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"65", "$65.00"},
		{"0", "$0.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"999.999", "$1,000.00"},
		{"-3", "$-3.00"},
		{"-1234.5", "$-1,234.50"},
		{"-0.5", "$-0.50"},
		{"20000000000000000000", "$20,000,000,000,000,000,000.00"},
		{"123456789012345678901234.005", "$123,456,789,012,345,678,901,234.01"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCurrency(decimal.RequireFromString(tt.in)))
		})
	}
}
