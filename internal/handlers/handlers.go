package handlers

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

const (
	renderTimeout = 10 * time.Second
	uploadField   = "file"
	noStore       = "no-store"

	// Multipart parts above this size spill to disk during parsing.
	maxFormMemory = 32 << 20
)

// viewer resolves the request's session and runs the dashboard pipeline on
// it. Every handler group embeds one.
type viewer struct {
	dashboard *services.Dashboard
	sessions  *session.Store
	upload    config.UploadConfig
	logger    *slog.Logger
}

func newViewer(dashboard *services.Dashboard, sessions *session.Store, upload config.UploadConfig, logger *slog.Logger) viewer {
	return viewer{
		dashboard: dashboard,
		sessions:  sessions,
		upload:    upload,
		logger:    logger,
	}
}

// current renders the view for an existing session. Requests without a live
// session have no data.
func (v *viewer) current(r *http.Request, sel *services.Selection) (*models.ViewModel, error) {
	state, ok := v.sessions.Lookup(r)
	if !ok {
		return nil, errors.NoData("no CSV file has been uploaded")
	}
	return v.dashboard.Render(r.Context(), state, nil, sel)
}

// ensure is current for requests that may start a session.
func (v *viewer) ensure(w http.ResponseWriter, r *http.Request, upload *services.Upload, sel *services.Selection) (*models.ViewModel, error) {
	state := v.sessions.Ensure(w, r)
	return v.dashboard.Render(r.Context(), state, upload, sel)
}

// readUpload extracts the CSV from the multipart field "file", enforcing the
// configured size limit.
func (v *viewer) readUpload(w http.ResponseWriter, r *http.Request) (*services.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, v.upload.MaxBytes)

	if err := r.ParseMultipartForm(min(v.upload.MaxBytes, maxFormMemory)); err != nil {
		return nil, uploadError(err, v.upload.MaxBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, errors.BadRequestWrap(err, `missing form field "file"`)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, uploadError(err, v.upload.MaxBytes)
	}

	return &services.Upload{FileName: header.Filename, Data: data}, nil
}

func uploadError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.PayloadTooLarge("uploaded file is too large").
			WithDetails(fmt.Sprintf("limit is %s", humanize.Bytes(uint64(max(limit, 0)))))
	}
	return errors.BadRequestWrap(err, "invalid multipart upload")
}

// selectionFromQuery reads a product selection submitted by the filter form
// without JavaScript. The form always sends filter=1 so that unchecking every
// product is distinguishable from not filtering at all.
func selectionFromQuery(r *http.Request) *services.Selection {
	q := r.URL.Query()
	if q.Get("filter") != "1" {
		return nil
	}
	return &services.Selection{Products: q["product"]}
}
