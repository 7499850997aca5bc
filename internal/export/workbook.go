package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pharmacy-dashboard/internal/models"
)

const (
	SheetFiltered = "Filtered Data"
	SheetProducts = "Top Products"
	SheetMonthly  = "Monthly Sales"
	SheetSummary  = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	currencyFormat = "$#,##0.00"
)

// WriteWorkbook writes the view as an XLSX workbook: the filtered rows, the
// aggregates that could be computed and a summary sheet.
func WriteWorkbook(vm *models.ViewModel, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFiltered); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	numFmt := currencyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("create currency style: %w", err)
	}

	if err := writeTable(f, SheetFiltered, bold, vm.Columns, len(vm.Filtered.Rows), func(i int) []any {
		return cells(vm.Filtered.Rows[i])
	}); err != nil {
		return err
	}

	if vm.HasTopProducts {
		if _, err := f.NewSheet(SheetProducts); err != nil {
			return fmt.Errorf("add sheet %s: %w", SheetProducts, err)
		}
		if err := writeTable(f, SheetProducts, bold, []string{models.ColumnProduct, models.ColumnQuantity}, len(vm.TopProducts), func(i int) []any {
			return []any{vm.TopProducts[i].Product, vm.TopProducts[i].Quantity}
		}); err != nil {
			return err
		}
	}

	if vm.HasMonthlySales {
		if _, err := f.NewSheet(SheetMonthly); err != nil {
			return fmt.Errorf("add sheet %s: %w", SheetMonthly, err)
		}
		if err := writeTable(f, SheetMonthly, bold, []string{models.ColumnMonth, models.ColumnRevenue}, len(vm.MonthlySales), func(i int) []any {
			return []any{vm.MonthlySales[i].Month, vm.MonthlySales[i].Revenue}
		}); err != nil {
			return err
		}
		last := fmt.Sprintf("B%d", len(vm.MonthlySales)+1)
		if err := f.SetCellStyle(SheetMonthly, "B2", last, money); err != nil {
			return fmt.Errorf("style monthly revenue: %w", err)
		}
	}

	if err := writeSummary(f, vm, bold, money); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headerStyle int, header []string, n int, row func(int) []any) error {
	headerCells := cells(header)
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if len(header) > 0 {
		end, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(i)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, vm *models.ViewModel, bold, money int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("add sheet %s: %w", SheetSummary, err)
	}

	rows := [][]any{
		{"File", vm.FileName},
		{"Rows", vm.TotalRows},
		{"Filtered rows", vm.Filtered.Len()},
	}
	if vm.HasRevenue {
		rows = append(rows, []any{"Total Revenue", vm.TotalRevenue})
	}

	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &r); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	if vm.HasRevenue {
		cell := fmt.Sprintf("B%d", len(rows))
		if err := f.SetCellStyle(SheetSummary, cell, cell, money); err != nil {
			return fmt.Errorf("style total revenue: %w", err)
		}
	}
	return nil
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
