// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/tsawler/timetable"
	"github.com/tsawler/timetable/config"
	"github.com/tsawler/timetable/document"
	"github.com/tsawler/timetable/metrics"
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/ocr"
)

// Options controls the HTTP surface
type Options struct {
	Addr              string
	MaxUploadBytes    int64
	AllowedTypes      []string // Accepted upload content types
	Browsers          []string // Accepted values of the browser form field
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	ShutdownTimeout   time.Duration
}

// DefaultOptions returns the options used by "timetable serve".
func DefaultOptions() Options {
	return Options{
		Addr:           ":8080",
		MaxUploadBytes: 10 << 20,
		AllowedTypes: []string{
			"application/pdf",
			"image/png",
			"image/jpeg",
			"image/gif",
			"image/bmp",
			"image/tiff",
			"image/webp",
		},
		Browsers:          []string{"CHROME", "FIREFOX"},
		AllowedOrigins:    []string{"*"},
		RequestsPerSecond: 5,
		Burst:             10,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server handles schedule uploads
type Server struct {
	config     config.Config
	opts       Options
	logger     *slog.Logger
	registry   *prometheus.Registry
	recorder   metrics.Recorder
	limiter    *rate.Limiter
	factory    ocr.Factory // nil builds Tesseract engines from config
	rasterizer document.Rasterizer
}

// New creates a server with its own metrics registry. A nil logger
// discards output.
func New(cfg config.Config, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Server{
		config:     cfg,
		opts:       opts,
		logger:     logger,
		registry:   registry,
		recorder:   recorder,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		rasterizer: document.Fitz{},
	}, nil
}

// WithOCR replaces the OCR engine factory.
func (s *Server) WithOCR(factory ocr.Factory) *Server {
	s.factory = factory
	return s
}

// WithRasterizer replaces the PDF renderer.
func (s *Server) WithRasterizer(r document.Rasterizer) *Server {
	s.rasterizer = r
	return s
}

// Handler returns the routed handler with CORS, rate limiting and
// cleartext HTTP/2 applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /parse", s.handleParse)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodPost},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return h2c.NewHandler(c.Handler(s.rateLimit(mux)), &http2.Server{})
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.limiter.Allow() {
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Warn("upload too large", "limit", s.opts.MaxUploadBytes)
			writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	browser := strings.ToUpper(strings.TrimSpace(r.FormValue("browser")))
	if browser == "" {
		browser = s.opts.Browsers[0]
	}
	if !slices.Contains(s.opts.Browsers, browser) {
		s.logger.Warn("invalid browser", "browser", browser)
		writeMessage(w, http.StatusBadRequest, "Invalid browser")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !slices.Contains(s.opts.AllowedTypes, contentType) {
		s.logger.Warn("invalid file type", "content_type", contentType)
		writeMessage(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Unreadable file")
		return
	}

	s.logger.Info("parsing upload", "filename", header.Filename, "browser", browser, "bytes", len(data))
	ics, err := timetable.FromBytes(data, contentType).
		Config(s.config).
		Logger(s.logger).
		Metrics(s.recorder).
		Rasterizer(s.rasterizer).
		OCR(s.factory).
		Hint(browser).
		Timezone(r.FormValue("timezone")).
		Calendar(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", "attachment; filename=calendar.ics")
	w.WriteHeader(http.StatusOK)
	w.Write(ics)
}

// StatusFor maps a conversion failure to an HTTP status.
func StatusFor(err error) int {
	switch model.KindOf(err) {
	case model.ErrInvalidDocument:
		return http.StatusBadRequest
	case model.ErrUnsupportedLayout, model.ErrNoTableDetected, model.ErrNoParseableRows:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("internal server error", "error", err)
		writeJSON(w, status, map[string]string{"error": "Internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": "Validation error", "details": err.Error()})
}
