package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/server"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

const testCSV = `Product,Quantity,Price,Date
A,2,10.0,2024-01-05
B,1,5.0,2024-01-20
A,3,10.0,2024-02-01
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8084,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Upload: config.UploadConfig{MaxBytes: 1 << 20},
		Session: config.SessionConfig{
			TTL:           time.Hour,
			MaxEntries:    100,
			SweepInterval: time.Minute,
		},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

type testApp struct {
	*httptest.Server
	client   *http.Client
	metrics  *observability.Metrics
	sessions *session.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	metrics := observability.NewMetrics()
	sessions := newSessionStore(cfg, metrics, logger)
	srv := server.NewServer(cfg, services.NewDashboard(logger, metrics), sessions, metrics, logger)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{Server: ts, client: client, metrics: metrics, sessions: sessions}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, string(body)
}

func (a *testApp) upload(t *testing.T, path, content string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()

	resp, err := a.client.Post(a.URL+path, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func TestServer_RoutesWithoutData(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/view", http.StatusNotFound, "application/json"},
		{"/api/top-products", http.StatusNotFound, "application/json"},
		{"/sse/refresh-all", http.StatusNotFound, "application/json"},
		{"/charts/monthly-sales.svg", http.StatusNotFound, "application/json"},
		{"/export.xlsx", http.StatusNotFound, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := app.get(t, tt.path)

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}

			ct := resp.Header.Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.Unmarshal([]byte(body), &result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_UploadFilterExport(t *testing.T) {
	app := newTestApp(t)

	resp := app.upload(t, "/upload", testCSV)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("upload status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}

	_, page := app.get(t, "/")
	for _, want := range []string{"Data loaded successfully!", "$65.00", "Monthly Sales Trend"} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard page missing %q", want)
		}
	}

	resp, body := app.get(t, "/sse/filter?datastar="+url.QueryEscape(`{"selected":["B"]}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sse status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "1 of 3 rows") {
		t.Errorf("filter patch missing filtered row count:\n%s", body)
	}

	_, body = app.get(t, "/api/summary")
	var summary struct {
		Data struct {
			FilteredRows     int    `json:"filtered_rows"`
			TotalRevenueText string `json:"total_revenue_text"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Data.FilteredRows != 1 {
		t.Errorf("filtered rows = %d, want 1", summary.Data.FilteredRows)
	}
	if summary.Data.TotalRevenueText != "$65.00" {
		t.Errorf("total revenue = %q, want $65.00", summary.Data.TotalRevenueText)
	}

	resp, _ = app.get(t, "/export.xlsx")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("export status = %d", resp.StatusCode)
	}

	resp, body = app.get(t, "/charts/top-products.svg")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(body, "<svg") {
		t.Errorf("chart status = %d, body prefix %.20q", resp.StatusCode, body)
	}
}

func TestServer_SessionsAreIsolated(t *testing.T) {
	app := newTestApp(t)
	app.upload(t, "/api/upload", testCSV)

	other := &http.Client{}
	resp, err := other.Get(app.URL + "/api/summary")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second client status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	if got := app.sessions.Len(); got != 1 {
		t.Errorf("sessions = %d, want 1", got)
	}
}

func TestServer_Middleware(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(t, "/health")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if csp := resp.Header.Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self' data:") {
		t.Errorf("content-security-policy = %q", csp)
	}

	req, _ := http.NewRequest(http.MethodGet, app.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}

func TestServer_Metrics(t *testing.T) {
	app := newTestApp(t)
	app.upload(t, "/api/upload", testCSV)
	app.get(t, "/api/view")
	app.get(t, "/no-such-page")

	_, body := app.get(t, "/metrics")
	for _, want := range []string{
		`dashboard_http_requests_total{method="GET",route="/api/view",status="200"} 1`,
		`dashboard_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
		`dashboard_uploads_total{result="accepted"} 1`,
		`dashboard_active_sessions 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestGracefulServer_Run(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gs := server.NewGracefulServer(newHTTPServer(cfg, http.NotFoundHandler()), logger, cfg)

	hookRan := make(chan struct{})
	gs.RegisterShutdownHook("test", func(context.Context) error {
		close(hookRan)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	select {
	case <-hookRan:
	default:
		t.Error("shutdown hook did not run")
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig()
	srv := newHTTPServer(cfg, http.NotFoundHandler())

	if srv.Addr != "127.0.0.1:8084" {
		t.Errorf("addr = %q", srv.Addr)
	}
	if srv.ReadTimeout != 5*time.Second || srv.WriteTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v", srv.ReadTimeout, srv.WriteTimeout)
	}
}
