package models

import "time"

const PreviewRows = 5

// ViewModel is everything one render hands to the presentation layer.
type ViewModel struct {
	FileName  string       `json:"file_name"`
	LoadedAt  time.Time    `json:"loaded_at"`
	Columns   []string     `json:"columns"`
	TotalRows int          `json:"total_rows"`
	Preview   [][]string   `json:"preview"`
	Filtered  FilteredView `json:"filtered"`
	Products  []string     `json:"products"`
	Selected  []string     `json:"selected"`

	TopProducts      []ProductQuantity `json:"top_products"`
	HasTopProducts   bool              `json:"has_top_products"`
	MonthlySales     []MonthlyRevenue  `json:"monthly_sales"`
	HasMonthlySales  bool              `json:"has_monthly_sales"`
	HasRevenue       bool              `json:"has_revenue"`
	TotalRevenue     float64           `json:"total_revenue"`
	TotalRevenueText string            `json:"total_revenue_text,omitempty"`
}

// IsSelected reports whether product is part of the current selection.
func (vm *ViewModel) IsSelected(product string) bool {
	for _, p := range vm.Selected {
		if p == product {
			return true
		}
	}
	return false
}

type Summary struct {
	FileName         string  `json:"file_name"`
	TotalRows        int     `json:"total_rows"`
	FilteredRows     int     `json:"filtered_rows"`
	HasRevenue       bool    `json:"has_revenue"`
	TotalRevenue     float64 `json:"total_revenue,omitempty"`
	TotalRevenueText string  `json:"total_revenue_text,omitempty"`
}

func (vm *ViewModel) Summary() Summary {
	return Summary{
		FileName:         vm.FileName,
		TotalRows:        vm.TotalRows,
		FilteredRows:     vm.Filtered.Len(),
		HasRevenue:       vm.HasRevenue,
		TotalRevenue:     vm.TotalRevenue,
		TotalRevenueText: vm.TotalRevenueText,
	}
}
