package charts

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-dashboard/internal/models"
)

var (
	topProducts = []models.ProductQuantity{
		{Product: "Aspirin", Quantity: 5},
		{Product: "Zinc", Quantity: 1},
	}
	monthlySales = []models.MonthlyRevenue{
		{Month: "2024-01", Revenue: 25},
		{Month: "2024-02", Revenue: 30},
	}
)

func TestTopProductsSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TopProductsSVG(topProducts, &buf))

	svg := buf.String()
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Aspirin")
	assert.Contains(t, svg, "Zinc")
}

func TestTopProductsSVG_EqualQuantities(t *testing.T) {
	var buf bytes.Buffer
	err := TopProductsSVG([]models.ProductQuantity{{Product: "A", Quantity: 0}, {Product: "B", Quantity: 0}}, &buf)
	require.NoError(t, err)
}

func TestMonthlySalesSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MonthlySalesSVG(monthlySales, &buf))

	svg := buf.String()
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, `width="700"`)
	assert.Contains(t, svg, `height="400"`)
	assert.Contains(t, svg, "2024-01")
	assert.Contains(t, svg, "2024-02")
}

func TestMonthlySalesSVG_SingleMonth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MonthlySalesSVG(monthlySales[:1], &buf))
	assert.Contains(t, buf.String(), "2024-01")
}

func TestEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, TopProductsSVG(nil, &buf), ErrNoData)
	assert.ErrorIs(t, MonthlySalesSVG(nil, &buf), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestRenderSet(t *testing.T) {
	vm := &models.ViewModel{
		TopProducts:     topProducts,
		HasTopProducts:  true,
		MonthlySales:    monthlySales,
		HasMonthlySales: true,
	}

	set, err := RenderSet(context.Background(), vm)
	require.NoError(t, err)
	assert.NotEmpty(t, set.TopProducts)
	assert.NotEmpty(t, set.MonthlySales)
	assert.NoError(t, set.Failed)

	vm.HasMonthlySales = false
	set, err = RenderSet(context.Background(), vm)
	require.NoError(t, err)
	assert.NotEmpty(t, set.TopProducts)
	assert.Nil(t, set.MonthlySales)
}

func TestRenderSet_OmitsChartThatFailsToDraw(t *testing.T) {
	vm := &models.ViewModel{
		TopProducts:     topProducts,
		HasTopProducts:  true,
		MonthlySales:    []models.MonthlyRevenue{{Month: "2024-01", Revenue: math.Inf(1)}},
		HasMonthlySales: true,
	}

	set, err := RenderSet(context.Background(), vm)
	require.NoError(t, err)
	assert.NotEmpty(t, set.TopProducts)
	assert.Nil(t, set.MonthlySales)
	assert.Error(t, set.Failed)
}

func TestRenderSet_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vm := &models.ViewModel{TopProducts: topProducts, HasTopProducts: true}
	_, err := RenderSet(ctx, vm)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, maxBarWidth, barWidth(1))
	assert.Equal(t, minBarWidth, barWidth(500))
}
