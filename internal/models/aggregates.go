package models

import "github.com/shopspring/decimal"

type ProductQuantity struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Aggregates are always computed over the full table, never the filtered view.
type Aggregates struct {
	TopProducts     []ProductQuantity `json:"top_products,omitempty"`
	HasTopProducts  bool              `json:"has_top_products"`
	MonthlySales    []MonthlyRevenue  `json:"monthly_sales,omitempty"`
	HasMonthlySales bool              `json:"has_monthly_sales"`
	TotalRevenue    decimal.Decimal   `json:"-"`
	HasRevenue      bool              `json:"has_revenue"`
}
