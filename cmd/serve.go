package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesm/stack-digest/internal/logger"
	"github.com/wesm/stack-digest/internal/web"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server
const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server. It serves the tag, exception and answer quality
rankings, accepts ingestion runs on POST /api/v1/data and exposes Prometheus
metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Background ingestion runs are bound to this context
	baseCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	server := web.NewServer(web.Deps{
		Analytics:    a.analyticsService(),
		Ingester:     a.syncer(),
		Runs:         a.db,
		Metrics:      a.metrics,
		Logger:       logger.Component(a.log, "web"),
		BaseContext:  baseCtx,
		DefaultTotal: a.cfg.TotalQuestions,
	})
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	return serveUntilSignal(httpServer, server, cancelRuns, shutdown, a.log)
}

// serveUntilSignal runs httpServer until it fails or a signal arrives on
// shutdown. Background ingestion runs are cancelled and awaited on both
// paths so the database outlives every writer.
func serveUntilSignal(httpServer *http.Server, server *web.Server, cancelRuns context.CancelFunc, shutdown <-chan os.Signal, log zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP API server")
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		cancelRuns()
		server.Wait()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		cancelRuns()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error during shutdown")
			return err
		}
		server.Wait()

		log.Info().Msg("Server stopped gracefully")
	}

	return nil
}
