package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/charsheet/internal/config"
	"github.com/aretw0/charsheet/internal/metrics"
	"github.com/aretw0/charsheet/internal/presentation/tui"
	httpAdapter "github.com/aretw0/charsheet/pkg/adapters/http"
	"github.com/aretw0/charsheet/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// NewServeHandler wires sessions, metrics and SSE streams into the HTTP handler.
func NewServeHandler(cfg *config.Config, version string, logger *slog.Logger) (http.Handler, error) {
	collector := metrics.New()
	streams := httpAdapter.NewStreamManager(logger)

	sessions, err := newSessions(cfg, logger, collector.Hooks(), streams.Hooks())
	if err != nil {
		return nil, err
	}

	return httpAdapter.NewHandler(sessions,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetrics(collector.Handler()),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithVersion(version),
	), nil
}

// RunServe serves HTTP on cfg.HTTP.Port until ctx is done, then shuts down
// gracefully.
func RunServe(ctx context.Context, out io.Writer, cfg *config.Config, version string, logger *slog.Logger) error {
	handler, err := NewServeHandler(cfg, version, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler,
	}

	tui.PrintBanner(out, fmt.Sprintf("v%s · http://localhost%s · store: %s", strings.TrimSpace(version), srv.Addr, cfg.Store.Backend))

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	}
}

// RunMCP serves the MCP tools over stdio or SSE.
func RunMCP(ctx context.Context, cfg *config.Config, transport string, port int, version string, logger *slog.Logger) error {
	sessions, err := newSessions(cfg, logger)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(sessions, version, logger)

	switch transport {
	case "stdio":
		logger.Info("Starting MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
	}
}
