// Package stream implements Server-Sent Events (SSE) streaming of live sky
// views. Clients connect via GET /api/v1/stream/skyview and receive a fresh
// two-panel polar figure on every refresh interval, computed at the current
// wall-clock instant.
//
// SSE message format:
//
//	data: {"type":"skyview","t":"2025-08-05 10:00","figure":{...}}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","objects":["Sun","301"],"obs_code":"500","interval_seconds":30}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Each refresh is an independent all-or-nothing query: a failed
// refresh produces an error message and the stream moves on to the next tick.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qifengcheng/astroView/internal/chart"
	"github.com/qifengcheng/astroView/internal/metrics"
	"github.com/qifengcheng/astroView/internal/timeaxis"
)

// SkyViewer produces a sky figure for a set of objects at one instant.
type SkyViewer interface {
	SkyView(ctx context.Context, objects []string, obsCode string, at timeaxis.Instant) (*chart.Figure, error)
}

// Config holds streaming configuration loaded from environment variables.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	MaxObjects         int           // Max objects per stream (default: 20).
}

// Handler manages SSE sky-view streaming connections.
type Handler struct {
	viewer  SkyViewer
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
	now     func() time.Time // injectable clock for tests
}

// NewHandler creates a new streaming handler.
func NewHandler(viewer SkyViewer, config Config, logger *slog.Logger) *Handler {
	if config.MaxObjects <= 0 {
		config.MaxObjects = 20
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		viewer:  viewer,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
		now:     time.Now,
	}
}

// ServeHTTP serves the SSE sky-view stream.
// GET /api/v1/stream/skyview?objects=Sun,301&obs_code=500&interval=30
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var objects []string
	for _, o := range strings.Split(r.URL.Query().Get("objects"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			objects = append(objects, o)
		}
	}
	if len(objects) == 0 || len(objects) > h.config.MaxObjects {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": fmt.Sprintf("objects parameter must list 1-%d objects", h.config.MaxObjects),
		})
		return
	}

	obsCode := r.URL.Query().Get("obs_code")
	if obsCode == "" {
		obsCode = "500"
	}

	interval := 30
	if v := r.URL.Query().Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 5 || n > 600 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid interval parameter, must be 5-600"})
			return
		}
		interval = n
	}

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := clientIP(r)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "too many concurrent streams"})
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"objects", len(objects),
		"obs_code", obsCode,
		"interval", interval,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	// Verify flusher support (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "streaming not supported"})
		return
	}

	// Set SSE response headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Send jittered retry interval (3-7s) to prevent thundering-herd
	// reconnection storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	meta := metadataMessage{
		Type:     "metadata",
		Objects:  objects,
		ObsCode:  obsCode,
		Interval: interval,
	}
	if err := c.sendJSON(meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
		return
	}

	ctx := r.Context()

	// First figure immediately, then one per interval.
	if done := h.push(ctx, c, objects, obsCode); done {
		return
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if done := h.push(ctx, c, objects, obsCode); done {
				return
			}
			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// push queries one refreshed sky view and sends it. Returns true when the
// connection should be closed.
func (h *Handler) push(ctx context.Context, c *client, objects []string, obsCode string) bool {
	at := timeaxis.FromTime(h.now().UTC())

	fig, err := h.viewer.SkyView(ctx, objects, obsCode, at)
	if err != nil {
		metrics.IncStreamErrors("query_error")
		h.logger.Warn("stream refresh failed", "remote_ip", c.ip, "error", err)
		if sendErr := c.sendJSON(errorMessage{Type: "error", Error: err.Error()}); sendErr != nil {
			return true
		}
		return false
	}

	if err := c.sendJSON(skyviewMessage{Type: "skyview", T: at.String(), Figure: fig}); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", c.ip, "error", err)
		return true
	}
	return false
}

// SSE message payload types.

type metadataMessage struct {
	Type     string   `json:"type"`
	Objects  []string `json:"objects"`
	ObsCode  string   `json:"obs_code"`
	Interval int      `json:"interval_seconds"`
}

type skyviewMessage struct {
	Type   string        `json:"type"`
	T      string        `json:"t"`
	Figure *chart.Figure `json:"figure"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
