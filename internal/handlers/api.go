package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

const version = "1.0.0"

type APIHandlers struct {
	viewer
	started     time.Time
	maxSessions int
}

func NewAPIHandlers(dashboard *services.Dashboard, sessions *session.Store, cfg *config.Config, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		viewer:      newViewer(dashboard, sessions, cfg.Upload, logger),
		started:     time.Now(),
		maxSessions: cfg.Session.MaxEntries,
	}
}

type previewResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type filteredResponse struct {
	Columns []string   `json:"columns"`
	Indices []int      `json:"indices"`
	Rows    [][]string `json:"rows"`
}

type productsResponse struct {
	Products []string `json:"products"`
	Selected []string `json:"selected"`
}

func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	vm, err := h.ensure(w, r, upload, nil)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, r, vm, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, selectionFromQuery(r), func(vm *models.ViewModel) (any, error) {
		return vm, nil
	})
}

func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		return previewResponse{Columns: vm.Columns, Rows: vm.Preview}, nil
	})
}

func (h *APIHandlers) HandleFiltered(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		return filteredResponse{
			Columns: vm.Columns,
			Indices: vm.Filtered.Indices,
			Rows:    vm.Filtered.Rows,
		}, nil
	})
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		return productsResponse{Products: vm.Products, Selected: vm.Selected}, nil
	})
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		if !vm.HasTopProducts {
			return nil, errors.NotFound("top products need Product and Quantity columns")
		}
		return vm.TopProducts, nil
	})
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		if !vm.HasMonthlySales {
			return nil, errors.NotFound("monthly sales need Date, Quantity and Price columns")
		}
		return vm.MonthlySales, nil
	})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, nil, func(vm *models.ViewModel) (any, error) {
		return vm.Summary(), nil
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_sessions": h.sessions.Len(),
		"max_sessions":    h.maxSessions,
		"started_at":      h.started.UTC().Format(time.RFC3339),
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
	}

	errors.WriteSuccess(w, r, stats)
}

func (h *APIHandlers) respond(w http.ResponseWriter, r *http.Request, sel *services.Selection, pick func(*models.ViewModel) (any, error)) {
	vm, err := h.current(r, sel)
	if err == nil {
		var data any
		if data, err = pick(vm); err == nil {
			errors.WriteSuccessWithHeaders(w, r, data, map[string]string{"Cache-Control": noStore})
			return
		}
	}
	errors.WriteError(w, r, h.logger, err)
}
