package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/larder/internal/service"
)

type Server struct {
	service *service.KitchenService
	mux     *http.ServeMux
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Server)

// WithClock sets the clock used when a request carries no as_of date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(svc *service.KitchenService, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		service: svc,
		mux:     http.NewServeMux(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /suggest", s.handleSuggest)
	s.mux.HandleFunc("POST /makeable", s.handleMakeable)

	s.mux.HandleFunc("GET /recipes", s.handleListRecipes)
	s.mux.HandleFunc("POST /recipes", s.handleCreateRecipe)
	s.mux.HandleFunc("DELETE /recipes/{name}", s.handleDeleteRecipe)
	s.mux.HandleFunc("POST /recipes/{name}/missing", s.handleMissing)

	s.mux.HandleFunc("GET /expiry", s.handleExpiry)
	s.mux.HandleFunc("POST /expiry/classify", s.handleClassify)
	s.mux.HandleFunc("GET /expiry/dates", s.handleExpiryDates)
	s.mux.HandleFunc("GET /expiry/item", s.handleItemExpiry)

	s.mux.HandleFunc("GET /items", s.handleListItems)
	s.mux.HandleFunc("POST /items", s.handleCreateItem)
	s.mux.HandleFunc("POST /items/{id}/use", s.handleUseItem)
	s.mux.HandleFunc("DELETE /items/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("POST /items/discard-expired", s.handleDiscardExpired)
	s.mux.HandleFunc("GET /waste", s.handleListWaste)
	s.mux.HandleFunc("POST /waste", s.handleLogWaste)
	s.mux.HandleFunc("DELETE /waste/{id}", s.handleDeleteWaste)

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
