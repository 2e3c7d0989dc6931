package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/qifengcheng/astroView/internal/auth"
	"github.com/qifengcheng/astroView/internal/chart"
	"github.com/qifengcheng/astroView/internal/health"
	"github.com/qifengcheng/astroView/internal/metrics"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

// Viewer is the figure-producing surface the server exposes over HTTP.
type Viewer interface {
	GetHeliocentricPosition(ctx context.Context, target string, dates [][3]int, idType string) (x, y, z []float64, err error)
	OrbitView(ctx context.Context, objectID string, start, stop timeaxis.Instant, stepDays int) (*chart.Figure, error)
	SkyView(ctx context.Context, objects []string, obsCode string, at timeaxis.Instant) (*chart.Figure, error)
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. streamHandler may be nil to
// disable the live sky stream; webContent may be nil to disable the
// embedded frontend.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, viewer Viewer, ready func() error, streamHandler http.Handler, webContent fs.FS) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /readyz", health.Readyz(ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/positions/{target}", positionsHandler(logger, viewer))
	mux.HandleFunc("GET /api/v1/orbits/{target}", orbitHandler(logger, viewer))
	mux.HandleFunc("GET /api/v1/skyview", skyviewHandler(logger, viewer))
	if streamHandler != nil {
		mux.Handle("GET /api/v1/stream/skyview", streamHandler)
	}
	if webContent != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(webContent)))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, webContent, "index.html")
		})
	}

	// Build middleware chain: cors -> metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)
	handler = cors.Default().Handler(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      120 * time.Second, // orbit views block on two providers; streams flush continuously
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// SSE streaming needs for flushing and write-deadline control.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			requestID := uuid.NewString()

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
