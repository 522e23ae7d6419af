package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/darwis-taxii/taxii-server/internal/config"
	"github.com/darwis-taxii/taxii-server/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TAXII server",
	Long: `Start the taxiid server.

Both protocol surfaces (TAXII 2.1 under /taxii2/, TAXII 1.x services under
/services/) and the management API are served on a single HTTP listener.`,
	RunE: runServe,
}

var devMode bool

func init() {
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (in-memory storage, relaxed auth)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration without validation, so the --dev flag can override
	// the storage driver before validation runs.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
		cfg.Storage.Driver = "memory"
	}
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// ctx is cancelled on the first SIGINT/SIGTERM; stop() restores default
	// signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	defer stop()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	srv, err := service.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("error closing server", "error", err)
		}
	}()

	srv.Start(ctx)

	logger.Info("taxiid starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"http_addr", cfg.Server.HTTPAddr,
		"storage", cfg.Storage.Driver,
		"metrics", cfg.Metrics.Enabled,
	)

	return runHTTPServer(ctx, cfg.Server.HTTPAddr, srv.Handler(), logger)
}

// runHTTPServer runs an http.Server until ctx is cancelled, then shuts it
// down gracefully with a bounded timeout.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err)
			return err
		}
		logger.Info("taxiid stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// parseLogLevel converts a string log level to slog.Level. Unrecognized
// values fall back to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
