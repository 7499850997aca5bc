package handlers

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"pharmacy-dashboard/internal/charts"
	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

type ChartHandlers struct {
	viewer
}

func NewChartHandlers(dashboard *services.Dashboard, sessions *session.Store, upload config.UploadConfig, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{viewer: newViewer(dashboard, sessions, upload, logger)}
}

func (h *ChartHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(vm *models.ViewModel, out io.Writer) error {
		if !vm.HasTopProducts {
			return errors.NotFound("top products need Product and Quantity columns")
		}
		return charts.TopProductsSVG(vm.TopProducts, out)
	})
}

func (h *ChartHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(vm *models.ViewModel, out io.Writer) error {
		if !vm.HasMonthlySales {
			return errors.NotFound("monthly sales need Date, Quantity and Price columns")
		}
		return charts.MonthlySalesSVG(vm.MonthlySales, out)
	})
}

func (h *ChartHandlers) serve(w http.ResponseWriter, r *http.Request, draw func(*models.ViewModel, io.Writer) error) {
	vm, err := h.current(r, nil)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := draw(vm, &buf); err != nil {
		if stderrors.Is(err, charts.ErrNoData) {
			err = errors.NotFound("nothing to plot")
		}
		errors.WriteError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", noStore)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "write chart", "error", err)
	}
}
