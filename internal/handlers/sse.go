package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"pharmacy-dashboard/internal/charts"
	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
	"pharmacy-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	viewer
}

func NewSSEHandlers(dashboard *services.Dashboard, sessions *session.Store, upload config.UploadConfig, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{viewer: newViewer(dashboard, sessions, upload, logger)}
}

// filterSignals is the client state the product checkboxes are bound to. A
// missing "selected" signal leaves the session selection as it is.
type filterSignals struct {
	Selected *[]string `json:"selected"`
}

// HandleFilter applies the bound selection and patches the regions that
// depend on it.
func (h *SSEHandlers) HandleFilter(w http.ResponseWriter, r *http.Request) {
	var signals filterSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid signals"))
		return
	}

	var sel *services.Selection
	if signals.Selected != nil {
		sel = &services.Selection{Products: *signals.Selected}
	}

	vm, err := h.current(r, sel)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	sse := datastar.NewSSE(w, r)
	h.patch(r.Context(), sse, vm,
		templates.FilteredData(vm),
		templates.TotalRevenue(vm),
	)
}

// HandleRefreshAll re-renders every dashboard region from the session state.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	vm, err := h.current(r, nil)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	set, err := charts.RenderSet(ctx, vm)
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "render charts"))
		return
	}
	if set.Failed != nil {
		h.logger.WarnContext(ctx, "charts omitted", "error", set.Failed)
	}
	imgs := templates.NewChartImages(set)

	sse := datastar.NewSSE(w, r)
	h.patch(ctx, sse, vm,
		templates.RawData(vm),
		templates.ProductFilter(vm),
		templates.FilteredData(vm),
		templates.TotalRevenue(vm),
		templates.TopProductsChart(imgs.TopProducts),
		templates.MonthlySalesChart(imgs.MonthlySales),
	)
}

// patch streams each fragment, then the selection signal. Once the stream has
// started, failures can only be logged.
func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, vm *models.ViewModel, fragments ...templ.Component) {
	for _, c := range fragments {
		html, err := templates.String(ctx, c)
		if err != nil {
			h.logger.ErrorContext(ctx, "render fragment", "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(ctx, "patch elements", "error", err)
			return
		}
	}

	signals, err := selectedSignals(vm)
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.WarnContext(ctx, "patch signals", "error", err)
	}
}

func selectedSignals(vm *models.ViewModel) ([]byte, error) {
	selected := vm.Selected
	if selected == nil {
		selected = []string{}
	}
	b, err := json.Marshal(map[string]any{"selected": selected})
	if err != nil {
		return nil, fmt.Errorf("marshal selection: %w", err)
	}
	return b, nil
}
