package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pharmacy-dashboard/internal/models"
)

func exampleView() *models.ViewModel {
	return &models.ViewModel{
		FileName:  "sales.csv",
		Columns:   []string{"Product", "Quantity", "Price", "Date"},
		TotalRows: 3,
		Filtered: models.FilteredView{
			Indices: []int{0, 2},
			Rows: [][]string{
				{"A", "2", "10.0", "2024-01-05"},
				{"A", "3", "10.0", "2024-02-01"},
			},
		},
		TopProducts:     []models.ProductQuantity{{Product: "A", Quantity: 5}, {Product: "B", Quantity: 1}},
		HasTopProducts:  true,
		MonthlySales:    []models.MonthlyRevenue{{Month: "2024-01", Revenue: 25}, {Month: "2024-02", Revenue: 30}},
		HasMonthlySales: true,
		HasRevenue:      true,
		TotalRevenue:    65,
	}
}

func openWorkbook(t *testing.T, vm *models.ViewModel) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(vm, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteWorkbook(t *testing.T) {
	f := openWorkbook(t, exampleView())

	assert.Equal(t, []string{SheetFiltered, SheetProducts, SheetMonthly, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetFiltered)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Product", "Quantity", "Price", "Date"},
		{"A", "2", "10.0", "2024-01-05"},
		{"A", "3", "10.0", "2024-02-01"},
	}, rows)

	rows, err = f.GetRows(SheetProducts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Product", "Quantity"}, {"A", "5"}, {"B", "1"}}, rows)

	months, err := f.GetCellValue(SheetMonthly, "A3")
	require.NoError(t, err)
	assert.Equal(t, "2024-02", months)

	label, err := f.GetCellValue(SheetSummary, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Total Revenue", label)

	total, err := f.GetCellValue(SheetSummary, "B4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "65", total)
}

func TestWriteWorkbook_SkipsMissingAggregates(t *testing.T) {
	vm := exampleView()
	vm.HasMonthlySales = false
	vm.MonthlySales = nil
	vm.HasRevenue = false

	f := openWorkbook(t, vm)
	assert.Equal(t, []string{SheetFiltered, SheetProducts, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteWorkbook_EmptyFilteredView(t *testing.T) {
	vm := exampleView()
	vm.Filtered = models.FilteredView{}

	f := openWorkbook(t, vm)
	rows, err := f.GetRows(SheetFiltered)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Product", "Quantity", "Price", "Date"}}, rows)
}
