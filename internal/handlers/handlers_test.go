package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

const exampleCSV = `Product,Quantity,Price,Date
A,2,10.0,2024-01-05
B,1,5.0,2024-01-20
A,3,10.0,2024-02-01
`

const noPriceCSV = `Product,Quantity,Date
A,2,2024-01-05
B,1,2024-01-20
`

type testEnv struct {
	sessions *session.Store
	pages    *PageHandlers
	api      *APIHandlers
	sse      *SSEHandlers
	charts   *ChartHandlers
	export   *ExportHandlers
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimit(t, 1<<20)
}

func newTestEnvWithLimit(t *testing.T, maxBytes int64) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Upload: config.UploadConfig{MaxBytes: maxBytes},
		Session: config.SessionConfig{
			TTL:           time.Hour,
			MaxEntries:    10,
			SweepInterval: time.Minute,
		},
	}

	dashboard := services.NewDashboard(logger, observability.NewMetrics())
	sessions := session.NewStore(cfg.Session, logger)

	return &testEnv{
		sessions: sessions,
		pages:    NewPageHandlers(dashboard, sessions, cfg.Upload, logger),
		api:      NewAPIHandlers(dashboard, sessions, cfg, logger),
		sse:      NewSSEHandlers(dashboard, sessions, cfg.Upload, logger),
		charts:   NewChartHandlers(dashboard, sessions, cfg.Upload, logger),
		export:   NewExportHandlers(dashboard, sessions, cfg.Upload, logger),
	}
}

func uploadRequest(t *testing.T, target, field, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "sales.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// upload loads content through the JSON API and returns the session cookie.
func (e *testEnv) upload(t *testing.T, content string) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	e.api.HandleUpload(rec, uploadRequest(t, "/api/upload", uploadField, content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("response did not set %s", session.CookieName)
	return nil
}

func get(h http.HandlerFunc, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestSelectionFromQuery(t *testing.T) {
	tests := []struct {
		query string
		want  *services.Selection
	}{
		{"", nil},
		{"product=A", nil},
		{"filter=1", &services.Selection{}},
		{"filter=1&product=A&product=B", &services.Selection{Products: []string{"A", "B"}}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			require.Equal(t, tt.want, selectionFromQuery(req))
		})
	}
}
