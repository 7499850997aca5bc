package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/export"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

type ExportHandlers struct {
	viewer
}

func NewExportHandlers(dashboard *services.Dashboard, sessions *session.Store, upload config.UploadConfig, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{viewer: newViewer(dashboard, sessions, upload, logger)}
}

// HandleWorkbook downloads the current view as XLSX. The workbook is built
// in memory first so failures still produce a JSON error.
func (h *ExportHandlers) HandleWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "export.workbook")
	defer span.End()

	vm, err := h.current(r.WithContext(ctx), nil)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(vm, &buf); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "build workbook"))
		return
	}

	h.logger.InfoContext(ctx, "workbook exported",
		"file_name", vm.FileName,
		"filtered_rows", vm.Filtered.Len(),
		observability.Bytes(int64(buf.Len())),
	)

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, workbookName(vm.FileName)))
	w.Header().Set("Cache-Control", noStore)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "write workbook", "error", err)
	}
}

func workbookName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "dashboard"
	}
	return base + "-dashboard.xlsx"
}
