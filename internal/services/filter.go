package services

import "pharmacy-dashboard/internal/models"

// DistinctProducts lists the Product values in order of first appearance. An
// empty cell is an option of its own, so selecting every option always yields
// the full table. It is nil when the table has no Product column.
func DistinctProducts(t *models.SalesTable) []string {
	idx, ok := t.ColumnIndex(models.ColumnProduct)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	products := make([]string, 0)
	for _, row := range t.Rows {
		p := row[idx]
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		products = append(products, p)
	}
	return products
}

// FilterByProducts keeps the rows whose Product is in selection, in source
// order. Without a Product column there is nothing to filter on and the view
// is the whole table.
func FilterByProducts(t *models.SalesTable, selection []string) models.FilteredView {
	idx, ok := t.ColumnIndex(models.ColumnProduct)
	if !ok {
		view := models.FilteredView{
			Indices: make([]int, len(t.Rows)),
			Rows:    t.Rows,
		}
		for i := range t.Rows {
			view.Indices[i] = i
		}
		return view
	}

	wanted := make(map[string]struct{}, len(selection))
	for _, p := range selection {
		wanted[p] = struct{}{}
	}

	view := models.FilteredView{
		Indices: make([]int, 0),
		Rows:    make([][]string, 0),
	}
	if len(wanted) == 0 {
		return view
	}

	for i, row := range t.Rows {
		if _, ok := wanted[row[idx]]; ok {
			view.Indices = append(view.Indices, i)
			view.Rows = append(view.Rows, row)
		}
	}
	return view
}
