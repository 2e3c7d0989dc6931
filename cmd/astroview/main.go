package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qifengcheng/astroView/internal/api"
	"github.com/qifengcheng/astroView/internal/auth"
	"github.com/qifengcheng/astroView/internal/ephemeris"
	"github.com/qifengcheng/astroView/internal/horizons"
	"github.com/qifengcheng/astroView/internal/skyview"
	"github.com/qifengcheng/astroView/internal/stream"
	"github.com/qifengcheng/astroView/internal/view"
	"github.com/qifengcheng/astroView/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ASTROVIEW_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	ephPath := os.Getenv("ASTROVIEW_EPHEMERIS_PATH")
	if ephPath == "" {
		ephPath = "data/de440s.bin"
	}
	handle := ephemeris.NewHandle(ephPath)
	defer handle.Close()
	local := ephemeris.NewJPL(handle)

	remote := horizons.NewClient(os.Getenv("ASTROVIEW_HORIZONS_URL"))

	style := loadStyle(logger)
	visualizer := view.New(local, remote, style, logger)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(visualizer, streamCfg, logger)

	// Readiness requires the ephemeris kernel on disk; the remote source is
	// checked per-request, not here, to keep readiness from flapping on
	// transient network errors.
	ready := func() error {
		if _, err := os.Stat(ephPath); err != nil {
			return fmt.Errorf("ephemeris kernel %s: %w", ephPath, err)
		}
		return nil
	}

	srv := api.NewServer(addr, logger, authCfg, visualizer, ready, streamHandler, web.Content)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"ephemeris_path", ephPath,
			"horizons_url", remote.BaseURL(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ASTROVIEW_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ASTROVIEW_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ASTROVIEW_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ASTROVIEW_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		KeepaliveInterval:  30 * time.Second,
		MaxObjects:         20,
	}

	if v := os.Getenv("ASTROVIEW_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTROVIEW_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("ASTROVIEW_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTROVIEW_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("ASTROVIEW_STREAM_MAX_OBJECTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTROVIEW_STREAM_MAX_OBJECTS value, using default", "value", v, "default", 20)
		} else {
			cfg.MaxObjects = n
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"max_objects", cfg.MaxObjects,
	)

	return cfg
}

// loadStyle reads sky display attributes from the YAML file named by
// ASTROVIEW_STYLE_PATH. File entries override the built-in defaults; on any
// read or parse error the defaults are used unchanged.
func loadStyle(logger *slog.Logger) skyview.Style {
	style := skyview.DefaultStyle()

	path := os.Getenv("ASTROVIEW_STYLE_PATH")
	if path == "" {
		return style
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("could not open style file, using defaults", "path", path, "error", err)
		return skyview.DefaultStyle()
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&style); err != nil {
		logger.Warn("invalid style file, using defaults", "path", path, "error", err)
		return skyview.DefaultStyle()
	}

	logger.Info("loaded style", "path", path, "colors", len(style.Colors))
	return style
}
