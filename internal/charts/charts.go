// Package charts renders the dashboard's two charts as SVG.
package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/sync/errgroup"

	"pharmacy-dashboard/internal/models"
)

const (
	Width  = 700
	Height = 400

	maxBarWidth = 60
	minBarWidth = 8
)

var ErrNoData = errors.New("charts: nothing to plot")

var (
	barColor  = drawing.ColorFromHex("1f77b4")
	lineColor = drawing.ColorFromHex("1f77b4")
)

// TopProductsSVG draws summed quantity per product as a bar chart, in the
// order given.
func TopProductsSVG(items []models.ProductQuantity, w io.Writer) error {
	if len(items) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, len(items))
	lo, hi := 0.0, 0.0
	for i, it := range items {
		bars[i] = chart.Value{
			Label: it.Product,
			Value: it.Quantity,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
		lo, hi = math.Min(lo, it.Quantity), math.Max(hi, it.Quantity)
	}

	graph := chart.BarChart{
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 10, Right: 10, Bottom: 10}},
		BarWidth:   barWidth(len(items)),
		BarSpacing: 8,
		YAxis: chart.YAxis{
			Name:  models.ColumnQuantity,
			Range: paddedRange(lo, hi),
		},
		Bars: bars,
	}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render top products chart: %w", err)
	}
	return nil
}

// MonthlySalesSVG draws revenue per month as a line with point markers.
func MonthlySalesSVG(items []models.MonthlyRevenue, w io.Writer) error {
	if len(items) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(items))
	ys := make([]float64, len(items))
	ticks := make([]chart.Tick, len(items))
	lo, hi := 0.0, 0.0
	for i, it := range items {
		xs[i] = float64(i)
		ys[i] = it.Revenue
		ticks[i] = chart.Tick{Value: float64(i), Label: it.Month}
		lo, hi = math.Min(lo, it.Revenue), math.Max(hi, it.Revenue)
	}

	graph := chart.Chart{
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 10}},
		XAxis: chart.XAxis{
			Name:  models.ColumnMonth,
			Ticks: ticks,
			// Half a step of slack on both sides keeps a single month plottable.
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(items)) - 0.5},
		},
		YAxis: chart.YAxis{
			Name:  models.ColumnRevenue,
			Range: paddedRange(lo, hi),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    models.ColumnRevenue,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					DotColor:    lineColor,
					DotWidth:    4,
				},
			},
		},
	}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render monthly sales chart: %w", err)
	}
	return nil
}

// Set holds the rendered SVG of every chart the view model supports; a nil
// field means that chart is not shown.
type Set struct {
	TopProducts  []byte
	MonthlySales []byte

	// Failed joins the draw errors of charts that were left out.
	Failed error
}

// RenderSet draws both charts of vm concurrently. A chart that fails to draw
// is omitted from the set and reported in Set.Failed; only cancellation of
// ctx fails the whole set.
func RenderSet(ctx context.Context, vm *models.ViewModel) (*Set, error) {
	set := &Set{}
	var topErr, monthlyErr error
	g, ctx := errgroup.WithContext(ctx)

	if vm.HasTopProducts && len(vm.TopProducts) > 0 {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := TopProductsSVG(vm.TopProducts, &buf); err != nil {
				topErr = err
				return ctx.Err()
			}
			set.TopProducts = buf.Bytes()
			return ctx.Err()
		})
	}

	if vm.HasMonthlySales && len(vm.MonthlySales) > 0 {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := MonthlySalesSVG(vm.MonthlySales, &buf); err != nil {
				monthlyErr = err
				return ctx.Err()
			}
			set.MonthlySales = buf.Bytes()
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	set.Failed = errors.Join(topErr, monthlyErr)
	return set, nil
}

func barWidth(n int) int {
	w := (Width - 80) / n
	w = w - w/4
	return max(minBarWidth, min(maxBarWidth, w))
}

func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}
