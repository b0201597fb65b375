package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vbonduro/propinv/internal/export"
	"github.com/vbonduro/propinv/internal/metrics"
	"github.com/vbonduro/propinv/internal/service"
)

// DefaultMaxUploadBytes caps multipart bodies for photos, documents and
// signatures.
const DefaultMaxUploadBytes = 50 * 1024 * 1024 // 50 MB

type Server struct {
	service   *service.InventoryService
	exporter  *export.Exporter
	metrics   *metrics.Metrics
	mux       *http.ServeMux
	logger    *slog.Logger
	maxUpload int64
}

// NewServer wires the JSON API. exporter and m may be nil, in which case the
// export and metrics routes are not registered.
func NewServer(svc *service.InventoryService, exporter *export.Exporter, m *metrics.Metrics, logger *slog.Logger, maxUpload int64) *Server {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	s := &Server{
		service:   svc,
		exporter:  exporter,
		metrics:   m,
		mux:       http.NewServeMux(),
		logger:    logger,
		maxUpload: maxUpload,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.mux.HandleFunc("GET /catalog", s.handleCatalog)

	s.mux.HandleFunc("GET /inventories", s.handleListInventories)
	s.mux.HandleFunc("POST /inventories", s.handleCreateInventory)
	s.mux.HandleFunc("GET /inventories/{id}", s.handleGetInventory)
	s.mux.HandleFunc("PATCH /inventories/{id}", s.handleUpdateFields)
	s.mux.HandleFunc("POST /inventories/{id}/front-image", s.handleSetFrontImage)
	s.mux.HandleFunc("PUT /inventories/{id}/checks/{checkID}", s.handleAnswerCheck)
	s.mux.HandleFunc("PATCH /inventories/{id}/rooms/{roomID}/items/{itemID}", s.handleUpdateItem)
	s.mux.HandleFunc("POST /inventories/{id}/rooms/{roomID}/items/{itemID}/photos", s.handleAttachPhoto)
	s.mux.HandleFunc("DELETE /inventories/{id}/rooms/{roomID}/items/{itemID}/photos/{photoID}", s.handleRemovePhoto)
	s.mux.HandleFunc("GET /inventories/{id}/photos/{photoID}", s.handleGetPhoto)
	s.mux.HandleFunc("PUT /inventories/{id}/documents/{docID}", s.handleUploadDocument)
	s.mux.HandleFunc("POST /inventories/{id}/signatures", s.handleAddSignature)
	s.mux.HandleFunc("POST /inventories/{id}/lock", s.handleLock)
	s.mux.HandleFunc("GET /inventories/{id}/vault", s.handleVault)
	s.mux.HandleFunc("GET /inventories/{id}/report", s.handleReport)

	if s.exporter != nil {
		s.mux.HandleFunc("POST /inventories/{id}/export", s.handleExport)
		s.mux.HandleFunc("GET /inventories/{id}/export", s.handleLastExport)
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
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

func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		m.ObserveRequest(r.Method, strconv.Itoa(rec.status), elapsed)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
