// Package templates renders the dashboard page and the fragments patched over
// SSE. The components are generated by templ from dashboard.templ, so handlers
// render them the same way whether they write a full page or a Datastar patch.
package templates

//go:generate templ generate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/a-h/templ"

	"pharmacy-dashboard/internal/charts"
	"pharmacy-dashboard/internal/models"
)

// Element ids targeted by SSE patches.
const (
	IDFilteredData  = "filtered-data"
	IDTotalRevenue  = "total-revenue"
	IDTopProducts   = "top-products-chart"
	IDMonthlySales  = "monthly-sales-chart"
	IDProductFilter = "product-filter"
	IDRawData       = "raw-data"
)

const (
	MsgAwaiting = "Awaiting CSV file upload."
	MsgLoaded   = "Data loaded successfully!"
)

// BlankProduct labels the option for rows with an empty Product cell.
const BlankProduct = "(blank)"

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notice struct {
	Kind NoticeKind
	Text string
}

// ChartImages holds the charts as data URIs. An empty URI means the chart
// could not be computed for the current table.
type ChartImages struct {
	TopProducts  string
	MonthlySales string
}

// NewChartImages encodes rendered SVGs for inline use.
func NewChartImages(set *charts.Set) ChartImages {
	if set == nil {
		return ChartImages{}
	}
	return ChartImages{
		TopProducts:  svgURI(set.TopProducts),
		MonthlySales: svgURI(set.MonthlySales),
	}
}

func svgURI(svg []byte) string {
	if len(svg) == 0 {
		return ""
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

// Page is the full dashboard. View is nil until a file has been loaded.
type Page struct {
	View   *models.ViewModel
	Notice *Notice
	Charts ChartImages
}

// String renders c into a string, for SSE patches.
func String(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func selectionSignals(vm *models.ViewModel) (string, error) {
	selected := []string{}
	if vm != nil && vm.Selected != nil {
		selected = vm.Selected
	}
	b, err := json.Marshal(map[string]any{"selected": selected})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func optionLabel(product string) string {
	if product == "" {
		return BlankProduct
	}
	return product
}
