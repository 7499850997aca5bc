package services

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/session"
)

type Upload struct {
	FileName string
	Data     []byte
}

// Selection replaces the session's product selection. An empty Products
// slice is a valid selection that matches no rows.
type Selection struct {
	Products []string
}

// Dashboard runs the whole pipeline for one interaction: load (when a file is
// uploaded), normalize, filter and aggregate.
type Dashboard struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewDashboard(logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	return &Dashboard{
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Render applies upload and selection to state, then derives a fresh view
// from the session's table. Either argument may be nil to leave that part of
// the state unchanged. A failed upload leaves state untouched.
func (d *Dashboard) Render(ctx context.Context, state *session.State, upload *Upload, selection *Selection) (*models.ViewModel, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.render",
		attribute.Bool("upload", upload != nil),
		attribute.Bool("selection", selection != nil),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := d.now()
	defer func() {
		d.metrics.RenderDuration.Observe(d.now().Sub(start).Seconds())
	}()

	state.Lock()
	defer state.Unlock()

	if upload != nil {
		if err := d.load(ctx, state, upload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload rejected")
			return nil, err
		}
	}

	if selection != nil {
		state.Selection = dedupe(selection.Products)
	}

	if !state.HasData() {
		return nil, apperrors.NoData("no CSV file has been uploaded")
	}

	table := state.Table
	normalized := Normalize(table)
	view := FilterByProducts(table, state.Selection)
	agg := Aggregate(normalized)

	d.logSkippedStages(ctx, state.ID, table, agg)

	vm := &models.ViewModel{
		FileName:        state.FileName,
		LoadedAt:        state.LoadedAt,
		Columns:         table.Columns,
		TotalRows:       table.Len(),
		Preview:         table.Head(models.PreviewRows),
		Filtered:        view,
		Products:        append([]string{}, state.Products...),
		Selected:        append([]string{}, state.Selection...),
		TopProducts:     agg.TopProducts,
		HasTopProducts:  agg.HasTopProducts,
		MonthlySales:    agg.MonthlySales,
		HasMonthlySales: agg.HasMonthlySales,
		HasRevenue:      agg.HasRevenue,
	}
	if agg.HasRevenue {
		vm.TotalRevenue = Float(agg.TotalRevenue)
		vm.TotalRevenueText = FormatCurrency(agg.TotalRevenue)
	}

	span.SetAttributes(
		attribute.Int("rows.total", vm.TotalRows),
		attribute.Int("rows.filtered", vm.Filtered.Len()),
	)
	return vm, nil
}

func (d *Dashboard) load(ctx context.Context, state *session.State, upload *Upload) error {
	table, err := LoadCSV(upload.Data)
	if err != nil {
		d.metrics.Uploads.WithLabelValues("rejected").Inc()
		d.logger.WarnContext(ctx, "upload rejected",
			"session_id", state.ID,
			"file_name", upload.FileName,
			observability.Bytes(int64(len(upload.Data))),
			"error", err,
		)
		return err
	}

	products := DistinctProducts(table)

	state.Table = table
	state.FileName = upload.FileName
	state.LoadedAt = d.now()
	state.Products = products
	state.Selection = slices.Clone(products)

	d.metrics.Uploads.WithLabelValues("accepted").Inc()
	d.metrics.RowsLoaded.Observe(float64(table.Len()))
	d.logger.InfoContext(ctx, "data loaded",
		"session_id", state.ID,
		"file_name", upload.FileName,
		observability.Bytes(int64(len(upload.Data))),
		"rows", table.Len(),
		"columns", len(table.Columns),
		"products", len(products),
	)
	return nil
}

// Missing columns are not errors; they only switch parts of the view off.
func (d *Dashboard) logSkippedStages(ctx context.Context, sessionID string, table *models.SalesTable, agg models.Aggregates) {
	if !d.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	var missing []string
	for _, c := range []string{models.ColumnProduct, models.ColumnQuantity, models.ColumnPrice, models.ColumnDate} {
		if !table.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return
	}

	d.logger.DebugContext(ctx, "stages skipped for missing columns",
		"session_id", sessionID,
		"missing", missing,
		"revenue", agg.HasRevenue,
		"top_products", agg.HasTopProducts,
		"monthly_sales", agg.HasMonthlySales,
	)
}

func dedupe(products []string) []string {
	out := make([]string, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
