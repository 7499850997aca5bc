package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"pharmacy-dashboard/internal/charts"
	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
	"pharmacy-dashboard/internal/ui/templates"
)

type PageHandlers struct {
	viewer
}

func NewPageHandlers(dashboard *services.Dashboard, sessions *session.Store, upload config.UploadConfig, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{viewer: newViewer(dashboard, sessions, upload, logger)}
}

// HandleDashboard renders the full page. A no-JS filter submission arrives
// here as a query string.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	vm, err := h.ensure(w, r, nil, selectionFromQuery(r))
	if err != nil && !errors.HasCode(err, errors.CodeNoData) {
		h.renderFailure(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, vm, nil)
}

// HandleUpload accepts the form upload and redirects back to the page, so a
// browser refresh does not resubmit the file.
func (h *PageHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err == nil {
		_, err = h.ensure(w, r, upload, nil)
	}
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.renderFailure(w, r, err)
		return
	}

	h.logger.WarnContext(r.Context(), "upload failed", "error", err)

	// The previous table, if any, is still there.
	vm, viewErr := h.current(r, nil)
	if viewErr != nil {
		vm = nil
	}
	h.renderPage(w, r, status, vm, &templates.Notice{
		Kind: templates.NoticeError,
		Text: "Could not load file: " + errors.Describe(err),
	})
}

func (h *PageHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, vm *models.ViewModel, notice *templates.Notice) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	page := templates.Page{View: vm, Notice: notice}
	if vm != nil {
		set, err := charts.RenderSet(ctx, vm)
		if err != nil {
			h.renderFailure(w, r, err)
			return
		}
		if set.Failed != nil {
			h.logger.WarnContext(ctx, "charts omitted", "error", set.Failed)
		}
		page.Charts = templates.NewChartImages(set)
		if notice == nil {
			page.Notice = &templates.Notice{Kind: templates.NoticeSuccess, Text: templates.MsgLoaded}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", noStore)
	w.WriteHeader(status)
	if err := templates.Dashboard(page).Render(ctx, w); err != nil {
		h.logger.ErrorContext(ctx, "render dashboard", "error", err)
	}
}

func (h *PageHandlers) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "dashboard page failed", "error", err)
	http.Error(w, "render error", http.StatusInternalServerError)
}
