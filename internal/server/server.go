package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/handlers"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/session"
)

type Server struct {
	router         chi.Router
	logger         *slog.Logger
	pageHandlers   *handlers.PageHandlers
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	chartHandlers  *handlers.ChartHandlers
	exportHandlers *handlers.ExportHandlers
	metrics        *observability.Metrics
}

func NewServer(cfg *config.Config, dashboard *services.Dashboard, sessions *session.Store, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		pageHandlers:   handlers.NewPageHandlers(dashboard, sessions, cfg.Upload, logger),
		apiHandlers:    handlers.NewAPIHandlers(dashboard, sessions, cfg, logger),
		sseHandlers:    handlers.NewSSEHandlers(dashboard, sessions, cfg.Upload, logger),
		chartHandlers:  handlers.NewChartHandlers(dashboard, sessions, cfg.Upload, logger),
		exportHandlers: handlers.NewExportHandlers(dashboard, sessions, cfg.Upload, logger),
		metrics:        metrics,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	// Installed on the router rather than around it, so the metrics
	// middleware can read the matched route pattern.
	s.router.Use(middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.router.Get("/", s.pageHandlers.HandleDashboard)
	s.router.Post("/upload", s.pageHandlers.HandleUpload)
	s.router.Get("/export.xlsx", s.exportHandlers.HandleWorkbook)
	s.router.Get("/health", s.apiHandlers.HandleHealth)
	s.router.Get("/admin/stats", s.apiHandlers.HandleStats)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// REST API endpoints
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.apiHandlers.HandleUpload)
		r.Get("/view", s.apiHandlers.HandleView)
		r.Get("/preview", s.apiHandlers.HandlePreview)
		r.Get("/filtered", s.apiHandlers.HandleFiltered)
		r.Get("/products", s.apiHandlers.HandleProducts)
		r.Get("/top-products", s.apiHandlers.HandleTopProducts)
		r.Get("/monthly-sales", s.apiHandlers.HandleMonthlySales)
		r.Get("/summary", s.apiHandlers.HandleSummary)
	})

	// Datastar SSE endpoints
	s.router.Get("/sse/filter", s.sseHandlers.HandleFilter)
	s.router.Get("/sse/refresh-all", s.sseHandlers.HandleRefreshAll)

	// Charts
	s.router.Get("/charts/top-products.svg", s.chartHandlers.HandleTopProducts)
	s.router.Get("/charts/monthly-sales.svg", s.chartHandlers.HandleMonthlySales)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
